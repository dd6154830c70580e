package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

func newDraft(t *testing.T, repo *MemoryApplicationRepository, companyID uuid.UUID, name string) *models.Application {
	t.Helper()
	app := &models.Application{
		CompanyID:   companyID,
		CompanyName: name,
		Status:      models.ApplicationStatusDraft,
		Employee:    &models.Employee{EmployeeLanguage: models.LanguageFinnish},
	}
	require.NoError(t, repo.Create(context.Background(), app))
	return app
}

func TestMemoryRepositoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository()
	app := newDraft(t, repo, uuid.New(), "Oy Yritys Ab")

	loaded, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	loaded.CompanyName = "changed"

	again, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oy Yritys Ab", again.CompanyName)
	require.NotNil(t, again.Employee)
	assert.Equal(t, app.ID, again.Employee.ApplicationID)
}

func TestMemoryRepositoryGetByIDNotFound(t *testing.T) {
	_, err := NewMemoryApplicationRepository().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryRollsBackFailedTransaction(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository()
	app := newDraft(t, repo, uuid.New(), "Oy Yritys Ab")

	failure := errors.New("boom")
	err := repo.WithinTransaction(ctx, func(tx ApplicationRepository) error {
		loaded, err := tx.GetByID(ctx, app.ID)
		require.NoError(t, err)
		loaded.Status = models.ApplicationStatusReceived
		require.NoError(t, tx.Save(ctx, loaded))
		require.NoError(t, tx.AppendLogEntry(ctx, &models.ApplicationLogEntry{
			ApplicationID: app.ID,
			FromStatus:    models.ApplicationStatusDraft,
			ToStatus:      models.ApplicationStatusReceived,
		}))
		return failure
	})
	assert.ErrorIs(t, err, failure)

	loaded, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusDraft, loaded.Status)
	assert.Empty(t, loaded.LogEntries)
}

func TestMemoryRepositoryCommitsTransaction(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository()
	app := newDraft(t, repo, uuid.New(), "Oy Yritys Ab")

	err := repo.WithinTransaction(ctx, func(tx ApplicationRepository) error {
		loaded, err := tx.GetByID(ctx, app.ID)
		if err != nil {
			return err
		}
		loaded.Status = models.ApplicationStatusReceived
		return tx.Save(ctx, loaded)
	})
	require.NoError(t, err)

	loaded, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusReceived, loaded.Status)
}

func TestMemoryRepositoryReplacePaySubsidies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository()
	app := newDraft(t, repo, uuid.New(), "Oy Yritys Ab")
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	subsidies := []models.PaySubsidy{
		{StartDate: start, EndDate: start.AddDate(0, 2, 0), PaySubsidyPercent: 50, WorkTimePercent: decimal.NewFromInt(100), Ordering: 1},
		{StartDate: start.AddDate(0, 2, 1), EndDate: start.AddDate(0, 5, 0), PaySubsidyPercent: 70, WorkTimePercent: decimal.NewFromInt(100), Ordering: 0},
	}
	require.NoError(t, repo.ReplacePaySubsidies(ctx, app.ID, subsidies))
	assert.NotEqual(t, uuid.Nil, subsidies[0].ID)

	loaded, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, loaded.PaySubsidies, 2)
	assert.Equal(t, 70, loaded.PaySubsidies[0].PaySubsidyPercent)
	assert.Equal(t, 50, loaded.PaySubsidies[1].PaySubsidyPercent)

	require.NoError(t, repo.ReplacePaySubsidies(ctx, app.ID, []models.PaySubsidy{}))
	loaded, err = repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.PaySubsidies)
}

func TestMemoryRepositorySaveKeepsOwnedCollections(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository()
	app := newDraft(t, repo, uuid.New(), "Oy Yritys Ab")
	require.NoError(t, repo.ReplaceDeMinimisAids(ctx, app.ID, []models.DeMinimisAid{
		{Granter: "City", Amount: decimal.NewFromInt(100)},
	}))

	loaded, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	loaded.DeMinimisAids = nil
	loaded.CompanyName = "Renamed"
	require.NoError(t, repo.Save(ctx, loaded))

	loaded, err = repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.CompanyName)
	assert.Len(t, loaded.DeMinimisAids, 1)
}

func TestMemoryRepositorySaveCalculationKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository()
	app := newDraft(t, repo, uuid.New(), "Oy Yritys Ab")

	calc := &models.Calculation{ApplicationID: app.ID, Rows: []models.CalculationRow{{Description: "total"}}}
	require.NoError(t, repo.SaveCalculation(ctx, calc))
	firstID := calc.ID

	recalc := &models.Calculation{ApplicationID: app.ID, Rows: []models.CalculationRow{{Description: "a"}, {Description: "b", Ordering: 1}}}
	recalc.ID = firstID
	require.NoError(t, repo.SaveCalculation(ctx, recalc))

	loaded, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Calculation)
	assert.Equal(t, firstID, loaded.Calculation.ID)
	assert.Len(t, loaded.Calculation.Rows, 2)
}

func TestMemoryRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository()
	companyA, companyB := uuid.New(), uuid.New()
	newDraft(t, repo, companyA, "Alpha Oy")
	newDraft(t, repo, companyA, "Another Oy")
	newDraft(t, repo, companyB, "Beta Ab")

	apps, total, err := repo.List(ctx, ApplicationFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
		CompanyID:        &companyA,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, apps, 2)

	apps, total, err = repo.List(ctx, ApplicationFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 1, Search: "beta"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, apps, 1)
	assert.Equal(t, "Beta Ab", apps[0].CompanyName)

	apps, total, err = repo.List(ctx, ApplicationFilter{
		PaginationParams: utils.PaginationParams{Page: 2, Limit: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, apps, 1)
}

func TestMemoryRepositoryBatches(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository()
	accepted := newDraft(t, repo, uuid.New(), "Alpha Oy")
	newDraft(t, repo, uuid.New(), "Beta Oy")

	accepted.Status = models.ApplicationStatusAccepted
	require.NoError(t, repo.Save(ctx, accepted))

	decided, err := repo.ListDecidedUnbatched(ctx)
	require.NoError(t, err)
	require.Len(t, decided, 1)
	assert.Equal(t, accepted.ID, decided[0].ID)

	batch := &models.ApplicationBatch{Status: models.ApplicationBatchStatusAhjoReportCreated}
	require.NoError(t, repo.CreateBatch(ctx, batch, []uuid.UUID{accepted.ID}))

	decided, err = repo.ListDecidedUnbatched(ctx)
	require.NoError(t, err)
	assert.Empty(t, decided)
	require.Len(t, repo.Batches(), 1)
}

func TestMemoryRepositoryFindBasesSkipsInactive(t *testing.T) {
	repo := NewMemoryApplicationRepository()
	repo.AddBasis("hired_after_training", true)
	repo.AddBasis("retired_basis", false)

	bases, err := repo.FindBases(context.Background(), []string{"hired_after_training", "retired_basis", "unknown"})
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, "hired_after_training", bases[0].Identifier)
}

func TestMemoryCompanyRepository(t *testing.T) {
	repo := NewMemoryCompanyRepository()
	company := repo.Add(models.Company{BusinessID: "0201256-6", Name: "Oy Yritys Ab"})

	found, err := repo.GetByBusinessID(context.Background(), "0201256-6")
	require.NoError(t, err)
	assert.Equal(t, company.ID, found.ID)

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
