package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cityofhelsinki/benefit-backend/internal/database"
	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) WithinTransaction(ctx context.Context, fn func(repo ApplicationRepository) error) error {
	return database.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		return fn(&applicationRepository{db: tx})
	})
}

func byOrdering(db *gorm.DB) *gorm.DB {
	return db.Order("ordering ASC")
}

func (r *applicationRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Company").
		Preload("Employee").
		Preload("DeMinimisAids", byOrdering).
		Preload("PaySubsidies", byOrdering).
		Preload("Calculation").
		Preload("Calculation.Rows", byOrdering).
		Preload("Bases").
		Preload("LogEntries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.preloaded(ctx).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &app, nil
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Application{})
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}
	if filter.Search != "" {
		query = query.Where("company_name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	var apps []models.Application
	query = utils.Paginate(query, filter.PaginationParams)
	if err := query.Preload("Employee").Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, total, nil
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	if app.Employee != nil {
		app.Employee.ApplicationID = app.ID
		if err := db.Create(app.Employee).Error; err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
	}
	if len(app.Bases) > 0 {
		if err := db.Model(app).Association("Bases").Replace(app.Bases); err != nil {
			return fmt.Errorf("failed to set application bases: %w", err)
		}
	}
	return nil
}

func (r *applicationRepository) Save(ctx context.Context, app *models.Application) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(app).Error; err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	if app.Employee != nil {
		app.Employee.ApplicationID = app.ID
		if err := db.Save(app.Employee).Error; err != nil {
			return fmt.Errorf("failed to save employee: %w", err)
		}
	}
	if err := db.Model(app).Association("Bases").Replace(app.Bases); err != nil {
		return fmt.Errorf("failed to set application bases: %w", err)
	}
	return nil
}

func (r *applicationRepository) ReplacePaySubsidies(ctx context.Context, applicationID uuid.UUID, subsidies []models.PaySubsidy) error {
	db := r.db.WithContext(ctx)
	if err := deleteMissing(db, &models.PaySubsidy{}, applicationID, keptPaySubsidyIDs(subsidies)); err != nil {
		return fmt.Errorf("failed to delete pay subsidies: %w", err)
	}
	for i := range subsidies {
		subsidies[i].ApplicationID = applicationID
		if err := db.Save(&subsidies[i]).Error; err != nil {
			return fmt.Errorf("failed to save pay subsidy: %w", err)
		}
	}
	return nil
}

func (r *applicationRepository) ReplaceDeMinimisAids(ctx context.Context, applicationID uuid.UUID, aids []models.DeMinimisAid) error {
	db := r.db.WithContext(ctx)
	var kept []uuid.UUID
	for _, aid := range aids {
		if aid.ID != uuid.Nil {
			kept = append(kept, aid.ID)
		}
	}
	if err := deleteMissing(db, &models.DeMinimisAid{}, applicationID, kept); err != nil {
		return fmt.Errorf("failed to delete de minimis aids: %w", err)
	}

	// Kept rows may swap positions; park them on negative orderings first so
	// the (application, ordering) unique index holds after every statement.
	if len(kept) > 0 {
		if err := db.Model(&models.DeMinimisAid{}).
			Where("application_id = ? AND id IN ?", applicationID, kept).
			Update("ordering", gorm.Expr("-1 - ordering")).Error; err != nil {
			return fmt.Errorf("failed to reorder de minimis aids: %w", err)
		}
	}
	for i := range aids {
		aids[i].ApplicationID = applicationID
		if err := db.Save(&aids[i]).Error; err != nil {
			return fmt.Errorf("failed to save de minimis aid: %w", err)
		}
	}
	return nil
}

func (r *applicationRepository) SaveCalculation(ctx context.Context, calculation *models.Calculation) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(calculation).Error; err != nil {
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	if err := db.Where("calculation_id = ?", calculation.ID).Delete(&models.CalculationRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete calculation rows: %w", err)
	}
	for i := range calculation.Rows {
		calculation.Rows[i].ID = uuid.Nil
		calculation.Rows[i].CalculationID = calculation.ID
	}
	if len(calculation.Rows) > 0 {
		if err := db.Create(&calculation.Rows).Error; err != nil {
			return fmt.Errorf("failed to create calculation rows: %w", err)
		}
	}
	return nil
}

func (r *applicationRepository) AppendLogEntry(ctx context.Context, entry *models.ApplicationLogEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create log entry: %w", err)
	}
	return nil
}

func (r *applicationRepository) FindBases(ctx context.Context, identifiers []string) ([]models.ApplicationBasis, error) {
	var bases []models.ApplicationBasis
	if len(identifiers) == 0 {
		return bases, nil
	}
	if err := r.db.WithContext(ctx).
		Where("identifier IN ? AND is_active = ?", identifiers, true).
		Order("identifier ASC").
		Find(&bases).Error; err != nil {
		return nil, fmt.Errorf("failed to find application bases: %w", err)
	}
	return bases, nil
}

func (r *applicationRepository) ListDecidedUnbatched(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	if err := r.preloaded(ctx).
		Where("status IN ? AND batch_id IS NULL", []models.ApplicationStatus{
			models.ApplicationStatusAccepted,
			models.ApplicationStatusRejected,
		}).
		Order("created_at ASC").
		Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list decided applications: %w", err)
	}
	return apps, nil
}

func (r *applicationRepository) CreateBatch(ctx context.Context, batch *models.ApplicationBatch, applicationIDs []uuid.UUID) error {
	return database.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(batch).Error; err != nil {
			return fmt.Errorf("failed to create batch: %w", err)
		}
		if len(applicationIDs) == 0 {
			return nil
		}
		if err := tx.Model(&models.Application{}).
			Where("id IN ?", applicationIDs).
			Update("batch_id", batch.ID).Error; err != nil {
			return fmt.Errorf("failed to assign applications to batch: %w", err)
		}
		return nil
	})
}

func keptPaySubsidyIDs(subsidies []models.PaySubsidy) []uuid.UUID {
	var kept []uuid.UUID
	for _, s := range subsidies {
		if s.ID != uuid.Nil {
			kept = append(kept, s.ID)
		}
	}
	return kept
}

func deleteMissing(db *gorm.DB, model interface{}, applicationID uuid.UUID, kept []uuid.UUID) error {
	query := db.Where("application_id = ?", applicationID)
	if len(kept) > 0 {
		query = query.Where("id NOT IN ?", kept)
	}
	return query.Delete(model).Error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *companyRepository) GetByBusinessID(ctx context.Context, businessID string) (*models.Company, error) {
	return r.first(ctx, "business_id = ?", businessID)
}

func (r *companyRepository) first(ctx context.Context, query string, arg interface{}) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &company, nil
}
