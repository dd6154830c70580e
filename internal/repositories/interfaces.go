package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

var ErrNotFound = errors.New("record not found")

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	utils.PaginationParams
	CompanyID *uuid.UUID
	Status    *models.ApplicationStatus
	Archived  *bool
}

// ApplicationRepository persists applications and everything they own.
type ApplicationRepository interface {
	// WithinTransaction runs fn against a repository bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(repo ApplicationRepository) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error)
	Create(ctx context.Context, app *models.Application) error

	// Save writes the application row, its employee and its bases.
	Save(ctx context.Context, app *models.Application) error
	// ReplacePaySubsidies makes the given rows the complete set for the
	// application. Rows with an id are updated, rows without are created and
	// persisted rows missing from the set are deleted.
	ReplacePaySubsidies(ctx context.Context, applicationID uuid.UUID, subsidies []models.PaySubsidy) error
	// ReplaceDeMinimisAids has the same semantics as ReplacePaySubsidies.
	ReplaceDeMinimisAids(ctx context.Context, applicationID uuid.UUID, aids []models.DeMinimisAid) error
	// SaveCalculation writes the calculation under its existing id and
	// replaces its rows.
	SaveCalculation(ctx context.Context, calculation *models.Calculation) error
	AppendLogEntry(ctx context.Context, entry *models.ApplicationLogEntry) error

	FindBases(ctx context.Context, identifiers []string) ([]models.ApplicationBasis, error)

	ListDecidedUnbatched(ctx context.Context) ([]models.Application, error)
	CreateBatch(ctx context.Context, batch *models.ApplicationBatch, applicationIDs []uuid.UUID) error
}

// CompanyRepository reads the company directory mirror.
type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByBusinessID(ctx context.Context, businessID string) (*models.Company, error)
}
