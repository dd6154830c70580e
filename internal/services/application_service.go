package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cityofhelsinki/benefit-backend/internal/calculator"
	"github.com/cityofhelsinki/benefit-backend/internal/config"
	"github.com/cityofhelsinki/benefit-backend/internal/metrics"
	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/repositories"
)

// Actor is the caller of a service operation.
type Actor struct {
	ID        *uuid.UUID
	Role      models.ActorRole
	CompanyID *uuid.UUID
}

// Calculator computes the benefit for an application.
type Calculator interface {
	Calculate(app *models.Application) (*calculator.Result, error)
}

type ApplicationService struct {
	repo       repositories.ApplicationRepository
	companies  repositories.CompanyRepository
	calculator Calculator
	history    HistorySink
	config     config.BenefitConfig
}

func NewApplicationService(
	repo repositories.ApplicationRepository,
	companies repositories.CompanyRepository,
	calc Calculator,
	history HistorySink,
	cfg config.BenefitConfig,
) *ApplicationService {
	return &ApplicationService{
		repo:       repo,
		companies:  companies,
		calculator: calc,
		history:    history,
		config:     cfg,
	}
}

// ActsAsHandler is true for handlers and for anonymous callers in mock mode.
// Those actors get the handler rules and read the handler view.
func (s *ApplicationService) ActsAsHandler(actor Actor) bool {
	return actor.Role == models.ActorRoleHandler ||
		(actor.Role == models.ActorRoleUnauthenticated && s.config.MockFlag)
}

func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID, actor Actor) (*models.Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(actor, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, filter repositories.ApplicationFilter, actor Actor) ([]models.Application, int64, error) {
	switch {
	case actor.Role == models.ActorRoleApplicant:
		if actor.CompanyID == nil {
			return nil, 0, ErrApplicationAccess
		}
		filter.CompanyID = actor.CompanyID
	case !s.ActsAsHandler(actor):
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, filter)
}

// Create starts a new draft application with the company data copied from the
// company directory.
func (s *ApplicationService) Create(ctx context.Context, req *CreateApplicationRequest, actor Actor) (*models.Application, error) {
	errs := &ValidationError{}
	validateRequest(req, errs)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	company, err := s.resolveCompany(ctx, req, actor)
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		CompanyID:                    company.ID,
		Status:                       models.ApplicationStatusDraft,
		CompanyName:                  company.Name,
		CompanyForm:                  company.CompanyForm,
		OrganizationType:             models.ResolveOrganizationType(company.CompanyFormCode, s.config.AssociationFormCodes),
		OfficialCompanyStreetAddress: company.StreetAddress,
		OfficialCompanyCity:          company.City,
		OfficialCompanyPostcode:      company.Postcode,
		ApplicantLanguage:            models.LanguageFinnish,
		Employee:                     &models.Employee{EmployeeLanguage: models.LanguageFinnish},
	}
	if req.ApplicantLanguage != nil {
		app.ApplicantLanguage = *req.ApplicantLanguage
	}
	if req.BenefitType != nil {
		app.BenefitType = *req.BenefitType
	}
	if req.Employee != nil {
		applyEmployeeEdits(app.Employee, req.Employee)
	}

	validateApplication(app, errs)
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	var created *models.Application
	err = s.repo.WithinTransaction(ctx, func(repo repositories.ApplicationRepository) error {
		if err := repo.Create(ctx, app); err != nil {
			return err
		}
		created, err = repo.GetByID(ctx, app.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.recordHistory(ctx, &models.ApplicationHistory{
		ApplicationID: created.ID,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Action:        HistoryActionCreate,
	})
	logrus.WithFields(logrus.Fields{
		"application_id":    created.ID,
		"company_id":        created.CompanyID,
		"organization_type": created.OrganizationType,
		"actor_role":        actor.Role,
	}).Info("Application created")

	return created, nil
}

func (s *ApplicationService) resolveCompany(ctx context.Context, req *CreateApplicationRequest, actor Actor) (*models.Company, error) {
	var (
		company *models.Company
		err     error
	)
	switch {
	case actor.Role == models.ActorRoleApplicant:
		if actor.CompanyID == nil {
			return nil, ErrApplicationAccess
		}
		company, err = s.companies.GetByID(ctx, *actor.CompanyID)
	case s.ActsAsHandler(actor):
		if req.BusinessID == "" {
			errs := &ValidationError{}
			errs.Add("business_id", "required", "business_id is required")
			return nil, errs
		}
		company, err = s.companies.GetByBusinessID(ctx, req.BusinessID)
	default:
		return nil, ErrForbidden
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up company: %w", err)
	}
	return company, nil
}

// updateOutcome carries what the write did to the post-commit bookkeeping.
type updateOutcome struct {
	from, to     models.ApplicationStatus
	recalculated bool
}

// ApplyUpdate performs one write on an application. The status transition,
// field edits, collection replacements and the recalculation are committed
// together or not at all.
func (s *ApplicationService) ApplyUpdate(ctx context.Context, id uuid.UUID, req *UpdateApplicationRequest, actor Actor) (*models.Application, error) {
	var (
		result  *models.Application
		outcome updateOutcome
	)

	err := s.repo.WithinTransaction(ctx, func(repo repositories.ApplicationRepository) error {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkAccess(actor, current); err != nil {
			return err
		}

		// 1. requested status, absent means unchanged
		newStatus := current.Status
		var requested *models.ApplicationStatus
		if req.Has("status") && req.Status != nil {
			if !req.Status.IsValid() {
				return fmt.Errorf("%w: %q", models.ErrInvalidStatusTransition, *req.Status)
			}
			requested = req.Status
			newStatus = *req.Status
		}

		// 2. editability
		editable, err := s.canEdit(actor, current.Status, requested)
		if err != nil {
			return err
		}
		if !editable {
			return ErrNotEditable
		}

		// 3. transition
		if newStatus != current.Status {
			if err := s.checkTransition(actor, current.Status, newStatus); err != nil {
				return err
			}
		}

		// 4. field edits on a copy
		if !s.ActsAsHandler(actor) && (req.Has("archived") || req.Has("pay_subsidies")) {
			return ErrHandlerOnlyField
		}
		errs := &ValidationError{}
		validateRequest(req, errs)
		if err := errs.OrNil(); err != nil {
			return err
		}

		updated := current.Clone()
		updated.Status = newStatus
		if err := applyScalarEdits(updated, req, current.Status == models.ApplicationStatusDraft); err != nil {
			return err
		}
		if req.Bases != nil {
			updated.Bases = s.resolveBases(ctx, repo, *req.Bases, errs)
		}

		// 5. collections
		subsidiesChanged := false
		if req.PaySubsidies != nil {
			updated.PaySubsidies = buildPaySubsidies(current.PaySubsidies, *req.PaySubsidies, errs)
			subsidiesChanged = !samePaySubsidies(current.PaySubsidies, updated.PaySubsidies)
		}
		if req.DeMinimisAidSet != nil {
			updated.DeMinimisAids = buildDeMinimisAids(current.DeMinimisAids, *req.DeMinimisAidSet, errs)
		}

		validateApplication(updated, errs)
		if err := errs.OrNil(); err != nil {
			return err
		}

		// 6. one recalculation decision
		recalculate := needsRecalculation(current, updated, subsidiesChanged)
		if recalculate {
			res, err := s.calculate(updated)
			if err != nil {
				return err
			}
			updated.Calculation = calculationFromResult(updated.ID, current.Calculation, res)
		}

		// 7. persist
		if err := repo.Save(ctx, updated); err != nil {
			return err
		}
		if req.PaySubsidies != nil {
			if err := repo.ReplacePaySubsidies(ctx, updated.ID, updated.PaySubsidies); err != nil {
				return err
			}
		}
		if req.DeMinimisAidSet != nil {
			if err := repo.ReplaceDeMinimisAids(ctx, updated.ID, updated.DeMinimisAids); err != nil {
				return err
			}
		}
		if recalculate {
			if err := repo.SaveCalculation(ctx, updated.Calculation); err != nil {
				return err
			}
		}
		if newStatus != current.Status {
			entry := &models.ApplicationLogEntry{
				ApplicationID: updated.ID,
				FromStatus:    current.Status,
				ToStatus:      newStatus,
			}
			if req.LogEntryComment != nil {
				entry.Comment = *req.LogEntryComment
			}
			if err := repo.AppendLogEntry(ctx, entry); err != nil {
				return err
			}
		}

		outcome = updateOutcome{from: current.Status, to: newStatus, recalculated: recalculate}
		result, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if outcome.from != outcome.to {
		metrics.RecordStatusTransition(string(outcome.from), string(outcome.to))
	}
	s.recordHistory(ctx, &models.ApplicationHistory{
		ApplicationID: id,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Action:        HistoryActionUpdate,
		Changes:       historyChanges(req, outcome.from, outcome.to, outcome.recalculated),
	})
	logrus.WithFields(logrus.Fields{
		"application_id": id,
		"actor_role":     actor.Role,
		"from_status":    outcome.from,
		"to_status":      outcome.to,
		"recalculated":   outcome.recalculated,
	}).Info("Application updated")

	return result, nil
}

func (s *ApplicationService) checkAccess(actor Actor, app *models.Application) error {
	switch actor.Role {
	case models.ActorRoleHandler:
		return nil
	case models.ActorRoleApplicant:
		if actor.CompanyID == nil || *actor.CompanyID != app.CompanyID {
			return ErrApplicationAccess
		}
		return nil
	case models.ActorRoleUnauthenticated:
		if s.config.MockFlag {
			return nil
		}
	}
	return ErrForbidden
}

// canEdit asks the status policy. Handlers pass the requested status so a
// decided application can be reopened in the same write.
func (s *ApplicationService) canEdit(actor Actor, status models.ApplicationStatus, requested *models.ApplicationStatus) (bool, error) {
	switch actor.Role {
	case models.ActorRoleHandler:
		return models.IsHandlerEditable(status, requested)
	case models.ActorRoleUnauthenticated:
		editable, err := models.IsEditable(actor.Role, status, s.config.MockFlag)
		if err != nil || editable || !s.config.MockFlag {
			return editable, err
		}
		return models.IsHandlerEditable(status, requested)
	default:
		return models.IsEditable(actor.Role, status, s.config.MockFlag)
	}
}

func (s *ApplicationService) checkTransition(actor Actor, from, to models.ApplicationStatus) error {
	var (
		allowed bool
		err     error
	)
	if s.ActsAsHandler(actor) {
		allowed, err = models.IsHandlerEditable(from, &to)
	} else {
		allowed, err = models.IsApplicantTransition(from, to)
	}
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s to %s", ErrTransitionDenied, from, to)
	}
	return nil
}

func (s *ApplicationService) calculate(app *models.Application) (*calculator.Result, error) {
	start := time.Now()
	res, err := s.calculator.Calculate(app)
	metrics.RecordCalculation(err == nil, time.Since(start))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"application_id": app.ID,
		}).WithError(err).Warn("Benefit calculation failed")
		return nil, err
	}
	return res, nil
}

func (s *ApplicationService) resolveBases(ctx context.Context, repo repositories.ApplicationRepository, identifiers []string, errs *ValidationError) []models.ApplicationBasis {
	bases, err := repo.FindBases(ctx, identifiers)
	if err != nil {
		errs.Add("bases", "exists", err.Error())
		return nil
	}
	found := make(map[string]bool, len(bases))
	for _, b := range bases {
		found[b.Identifier] = true
	}
	for _, identifier := range identifiers {
		if !found[identifier] {
			errs.Add("bases", "exists", fmt.Sprintf("unknown application basis %q", identifier))
		}
	}
	if bases == nil {
		bases = []models.ApplicationBasis{}
	}
	return bases
}

func (s *ApplicationService) recordHistory(ctx context.Context, entry *models.ApplicationHistory) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"application_id": entry.ApplicationID,
			"action":         entry.Action,
		}).WithError(err).Error("Failed to record application history")
	}
}

// needsRecalculation decides once per write whether the calculation must be
// (re)computed. A missing calculation is created when the application is
// submitted out of draft; an existing one follows every change of its inputs.
// A cancelled application is never calculated.
func needsRecalculation(current, updated *models.Application, subsidiesChanged bool) bool {
	if updated.Status == models.ApplicationStatusCancelled {
		return false
	}
	if current.Calculation == nil &&
		current.Status == models.ApplicationStatusDraft &&
		updated.Status != models.ApplicationStatusDraft {
		return true
	}
	inputsChanged := subsidiesChanged ||
		current.BenefitType != updated.BenefitType ||
		!sameDate(current.StartDate, updated.StartDate) ||
		!sameDate(current.EndDate, updated.EndDate) ||
		!sameEmployeeCosts(current.Employee, updated.Employee)
	if !inputsChanged {
		return false
	}
	return current.Calculation != nil || updated.Status != models.ApplicationStatusDraft
}

func sameEmployeeCosts(a, b *models.Employee) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return sameDecimal(a.MonthlyPay, b.MonthlyPay) &&
		sameDecimal(a.VacationMoney, b.VacationMoney) &&
		sameDecimal(a.OtherExpenses, b.OtherExpenses)
}

func sameDecimal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func samePaySubsidies(a, b []models.PaySubsidy) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].SameContent(b[i]) {
			return false
		}
	}
	return true
}

func calculationFromResult(applicationID uuid.UUID, existing *models.Calculation, res *calculator.Result) *models.Calculation {
	calc := &models.Calculation{ApplicationID: applicationID}
	if existing != nil {
		calc.BaseModel = existing.BaseModel
	}
	start, end := res.StartDate, res.EndDate
	calc.MonthlyPay = res.MonthlyPay
	calc.VacationMoney = res.VacationMoney
	calc.OtherExpenses = res.OtherExpenses
	calc.StartDate = &start
	calc.EndDate = &end
	calc.BenefitType = res.BenefitType
	calc.CalculatedBenefitAmount = res.Total
	calc.Rows = res.Rows
	return calc
}
