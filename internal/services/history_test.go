package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestDBHistorySinkRecord(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO "bf_applications_application_history"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.ApplicationHistory{
		ApplicationID: uuid.New(),
		ActorRole:     models.ActorRoleHandler,
		Action:        HistoryActionUpdate,
		Changes:       historyChanges(&UpdateApplicationRequest{}, models.ApplicationStatusDraft, models.ApplicationStatusReceived, true),
	}
	require.NoError(t, NewDBHistorySink(db).Record(context.Background(), entry))

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBHistorySinkRecordWrapsError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO "bf_applications_application_history"`).
		WillReturnError(errors.New("connection reset"))

	err := NewDBHistorySink(db).Record(context.Background(), &models.ApplicationHistory{
		ApplicationID: uuid.New(),
		ActorRole:     models.ActorRoleApplicant,
		Action:        HistoryActionCreate,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record application history")
}

func TestHistoryChangesListsSentFields(t *testing.T) {
	req := decodeUpdate(t, `{"employee": {"monthly_pay": "1"}, "bases": [], "calculation": {}}`)

	changes := historyChanges(req, models.ApplicationStatusHandling, models.ApplicationStatusHandling, false)

	assert.Equal(t, []string{"bases", "employee"}, changes["fields"])
	assert.Equal(t, false, changes["recalculated"])
	_, hasStatus := changes["status"]
	assert.False(t, hasStatus)
}
