package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

// MemoryApplicationRepository keeps applications in process memory. It is used
// by tests and by local runs without a database. Every read returns a deep
// copy, and transactions work on a snapshot that replaces the live data only
// on success.
type MemoryApplicationRepository struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
}

type memoryData struct {
	applications map[uuid.UUID]*models.Application
	bases        map[string]models.ApplicationBasis
	batches      map[uuid.UUID]*models.ApplicationBatch
}

func NewMemoryApplicationRepository() *MemoryApplicationRepository {
	return &MemoryApplicationRepository{
		mu: &sync.Mutex{},
		data: &memoryData{
			applications: make(map[uuid.UUID]*models.Application),
			bases:        make(map[string]models.ApplicationBasis),
			batches:      make(map[uuid.UUID]*models.ApplicationBatch),
		},
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		applications: make(map[uuid.UUID]*models.Application, len(d.applications)),
		bases:        make(map[string]models.ApplicationBasis, len(d.bases)),
		batches:      make(map[uuid.UUID]*models.ApplicationBatch, len(d.batches)),
	}
	for id, app := range d.applications {
		c.applications[id] = app.Clone()
	}
	for k, v := range d.bases {
		c.bases[k] = v
	}
	for id, batch := range d.batches {
		b := *batch
		b.ExportedKeys = append([]string(nil), batch.ExportedKeys...)
		c.batches[id] = &b
	}
	return c
}

func (r *MemoryApplicationRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// AddBasis registers an application basis.
func (r *MemoryApplicationRepository) AddBasis(identifier string, active bool) models.ApplicationBasis {
	defer r.lock()()
	basis := models.ApplicationBasis{Identifier: identifier, IsActive: active}
	basis.ID = uuid.New()
	basis.CreatedAt = time.Now()
	basis.UpdatedAt = basis.CreatedAt
	r.data.bases[identifier] = basis
	return basis
}

// Batches returns every stored batch ordered by creation time.
func (r *MemoryApplicationRepository) Batches() []models.ApplicationBatch {
	defer r.lock()()
	batches := make([]models.ApplicationBatch, 0, len(r.data.batches))
	for _, b := range r.data.batches {
		batches = append(batches, *b)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].CreatedAt.Before(batches[j].CreatedAt) })
	return batches
}

func (r *MemoryApplicationRepository) WithinTransaction(ctx context.Context, fn func(repo ApplicationRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.data.clone()
	tx := &MemoryApplicationRepository{mu: r.mu, data: snapshot, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	*r.data = *snapshot
	return nil
}

func (r *MemoryApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	defer r.lock()()
	app, ok := r.data.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sortedCopy(app), nil
}

func (r *MemoryApplicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error) {
	defer r.lock()()
	var matched []*models.Application
	for _, app := range r.data.applications {
		if filter.CompanyID != nil && app.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		if filter.Archived != nil && app.Archived != *filter.Archived {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(app.CompanyName), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, app)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		if !filter.Descending() {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		offset := filter.Offset()
		if offset > len(matched) {
			offset = len(matched)
		}
		end := offset + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[offset:end]
	}

	apps := make([]models.Application, 0, len(matched))
	for _, app := range matched {
		apps = append(apps, *sortedCopy(app))
	}
	return apps, total, nil
}

func (r *MemoryApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	defer r.lock()()
	now := time.Now()
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	app.CreatedAt, app.UpdatedAt = now, now
	if app.Employee != nil {
		if app.Employee.ID == uuid.Nil {
			app.Employee.ID = uuid.New()
		}
		app.Employee.ApplicationID = app.ID
		app.Employee.CreatedAt, app.Employee.UpdatedAt = now, now
	}
	r.data.applications[app.ID] = app.Clone()
	return nil
}

func (r *MemoryApplicationRepository) Save(ctx context.Context, app *models.Application) error {
	defer r.lock()()
	stored, ok := r.data.applications[app.ID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	app.UpdatedAt = now
	if app.Employee != nil {
		if app.Employee.ID == uuid.Nil {
			app.Employee.ID = uuid.New()
			app.Employee.CreatedAt = now
		}
		app.Employee.ApplicationID = app.ID
		app.Employee.UpdatedAt = now
	}

	// owned collections are written through their own methods
	updated := app.Clone()
	updated.DeMinimisAids = stored.DeMinimisAids
	updated.PaySubsidies = stored.PaySubsidies
	updated.Calculation = stored.Calculation
	updated.LogEntries = stored.LogEntries
	r.data.applications[app.ID] = updated
	return nil
}

func (r *MemoryApplicationRepository) ReplacePaySubsidies(ctx context.Context, applicationID uuid.UUID, subsidies []models.PaySubsidy) error {
	defer r.lock()()
	stored, ok := r.data.applications[applicationID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	for i := range subsidies {
		if subsidies[i].ID == uuid.Nil {
			subsidies[i].ID = uuid.New()
			subsidies[i].CreatedAt = now
		}
		subsidies[i].ApplicationID = applicationID
		subsidies[i].UpdatedAt = now
	}
	stored.PaySubsidies = (&models.Application{PaySubsidies: subsidies}).Clone().PaySubsidies
	if stored.PaySubsidies == nil {
		stored.PaySubsidies = []models.PaySubsidy{}
	}
	return nil
}

func (r *MemoryApplicationRepository) ReplaceDeMinimisAids(ctx context.Context, applicationID uuid.UUID, aids []models.DeMinimisAid) error {
	defer r.lock()()
	stored, ok := r.data.applications[applicationID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	for i := range aids {
		if aids[i].ID == uuid.Nil {
			aids[i].ID = uuid.New()
			aids[i].CreatedAt = now
		}
		aids[i].ApplicationID = applicationID
		aids[i].UpdatedAt = now
	}
	stored.DeMinimisAids = (&models.Application{DeMinimisAids: aids}).Clone().DeMinimisAids
	if stored.DeMinimisAids == nil {
		stored.DeMinimisAids = []models.DeMinimisAid{}
	}
	return nil
}

func (r *MemoryApplicationRepository) SaveCalculation(ctx context.Context, calculation *models.Calculation) error {
	defer r.lock()()
	stored, ok := r.data.applications[calculation.ApplicationID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	if calculation.ID == uuid.Nil {
		calculation.ID = uuid.New()
		calculation.CreatedAt = now
	}
	calculation.UpdatedAt = now
	for i := range calculation.Rows {
		calculation.Rows[i].ID = uuid.New()
		calculation.Rows[i].CalculationID = calculation.ID
		calculation.Rows[i].CreatedAt, calculation.Rows[i].UpdatedAt = now, now
	}
	stored.Calculation = calculation.Clone()
	return nil
}

func (r *MemoryApplicationRepository) AppendLogEntry(ctx context.Context, entry *models.ApplicationLogEntry) error {
	defer r.lock()()
	stored, ok := r.data.applications[entry.ApplicationID]
	if !ok {
		return ErrNotFound
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	stored.LogEntries = append(stored.LogEntries, *entry)
	return nil
}

func (r *MemoryApplicationRepository) FindBases(ctx context.Context, identifiers []string) ([]models.ApplicationBasis, error) {
	defer r.lock()()
	var bases []models.ApplicationBasis
	for _, identifier := range identifiers {
		if basis, ok := r.data.bases[identifier]; ok && basis.IsActive {
			bases = append(bases, basis)
		}
	}
	sort.Slice(bases, func(i, j int) bool { return bases[i].Identifier < bases[j].Identifier })
	return bases, nil
}

func (r *MemoryApplicationRepository) ListDecidedUnbatched(ctx context.Context) ([]models.Application, error) {
	defer r.lock()()
	var apps []models.Application
	for _, app := range r.data.applications {
		decided := app.Status == models.ApplicationStatusAccepted || app.Status == models.ApplicationStatusRejected
		if decided && app.BatchID == nil {
			apps = append(apps, *sortedCopy(app))
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.Before(apps[j].CreatedAt) })
	return apps, nil
}

func (r *MemoryApplicationRepository) CreateBatch(ctx context.Context, batch *models.ApplicationBatch, applicationIDs []uuid.UUID) error {
	defer r.lock()()
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	batch.CreatedAt = time.Now()
	batch.UpdatedAt = batch.CreatedAt
	for _, id := range applicationIDs {
		app, ok := r.data.applications[id]
		if !ok {
			return ErrNotFound
		}
		batchID := batch.ID
		app.BatchID = &batchID
	}
	stored := *batch
	stored.Applications = nil
	stored.ExportedKeys = append([]string(nil), batch.ExportedKeys...)
	r.data.batches[batch.ID] = &stored
	return nil
}

func sortedCopy(app *models.Application) *models.Application {
	c := app.Clone()
	sort.SliceStable(c.DeMinimisAids, func(i, j int) bool { return c.DeMinimisAids[i].Ordering < c.DeMinimisAids[j].Ordering })
	sort.SliceStable(c.PaySubsidies, func(i, j int) bool { return c.PaySubsidies[i].Ordering < c.PaySubsidies[j].Ordering })
	if c.Calculation != nil {
		sort.SliceStable(c.Calculation.Rows, func(i, j int) bool {
			return c.Calculation.Rows[i].Ordering < c.Calculation.Rows[j].Ordering
		})
	}
	return c
}

// MemoryCompanyRepository is the in-memory company directory mirror.
type MemoryCompanyRepository struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]models.Company
}

func NewMemoryCompanyRepository() *MemoryCompanyRepository {
	return &MemoryCompanyRepository{companies: make(map[uuid.UUID]models.Company)}
}

func (r *MemoryCompanyRepository) Add(company models.Company) models.Company {
	r.mu.Lock()
	defer r.mu.Unlock()
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	r.companies[company.ID] = company
	return company
}

func (r *MemoryCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	company, ok := r.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &company, nil
}

func (r *MemoryCompanyRepository) GetByBusinessID(ctx context.Context, businessID string) (*models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, company := range r.companies {
		if company.BusinessID == businessID {
			c := company
			return &c, nil
		}
	}
	return nil, ErrNotFound
}
