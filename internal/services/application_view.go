package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

// ApplicantApplicationView is what applicants read back. It never carries the
// calculation or the pay subsidies.
type ApplicantApplicationView struct {
	ID        uuid.UUID                `json:"id"`
	CompanyID uuid.UUID                `json:"company_id"`
	Status    models.ApplicationStatus `json:"status"`

	CompanyName                  string                  `json:"company_name"`
	CompanyForm                  string                  `json:"company_form"`
	OrganizationType             models.OrganizationType `json:"organization_type"`
	OfficialCompanyStreetAddress string                  `json:"official_company_street_address"`
	OfficialCompanyCity          string                  `json:"official_company_city"`
	OfficialCompanyPostcode      string                  `json:"official_company_postcode"`

	UseAlternativeAddress           bool   `json:"use_alternative_address"`
	AlternativeCompanyStreetAddress string `json:"alternative_company_street_address"`
	AlternativeCompanyCity          string `json:"alternative_company_city"`
	AlternativeCompanyPostcode      string `json:"alternative_company_postcode"`

	CompanyBankAccountNumber        string `json:"company_bank_account_number"`
	CompanyContactPersonPhoneNumber string `json:"company_contact_person_phone_number"`
	CompanyContactPersonEmail       string `json:"company_contact_person_email"`

	AssociationHasBusinessActivities   *bool           `json:"association_has_business_activities"`
	ApplicantLanguage                  models.Language `json:"applicant_language"`
	CoOperationNegotiations            *bool           `json:"co_operation_negotiations"`
	CoOperationNegotiationsDescription string          `json:"co_operation_negotiations_description"`
	ApprenticeshipProgram              *bool           `json:"apprenticeship_program"`

	BenefitType           models.BenefitType   `json:"benefit_type"`
	AvailableBenefitTypes []models.BenefitType `json:"available_benefit_types"`
	StartDate             *string              `json:"start_date"`
	EndDate               *string              `json:"end_date"`

	DeMinimisAid    *bool              `json:"de_minimis_aid"`
	DeMinimisAidSet []DeMinimisAidView `json:"de_minimis_aid_set"`
	Bases           []string           `json:"bases"`
	Employee        *EmployeeView      `json:"employee"`
	LogEntries      []LogEntryView     `json:"log_entries"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// HandlerApplicationView adds the handler-only parts.
type HandlerApplicationView struct {
	ApplicantApplicationView
	Archived     bool             `json:"archived"`
	BatchID      *uuid.UUID       `json:"batch_id"`
	Calculation  *CalculationView `json:"calculation"`
	PaySubsidies []PaySubsidyView `json:"pay_subsidies"`
}

type DeMinimisAidView struct {
	ID        uuid.UUID `json:"id"`
	Granter   string    `json:"granter"`
	Amount    string    `json:"amount"`
	GrantedAt *string   `json:"granted_at"`
	Ordering  int       `json:"ordering"`
}

type EmployeeView struct {
	ID                            uuid.UUID       `json:"id"`
	FirstName                     string          `json:"first_name"`
	LastName                      string          `json:"last_name"`
	SocialSecurityNumber          string          `json:"social_security_number"`
	PhoneNumber                   string          `json:"phone_number"`
	Email                         string          `json:"email"`
	EmployeeLanguage              models.Language `json:"employee_language"`
	JobTitle                      string          `json:"job_title"`
	MonthlyPay                    *string         `json:"monthly_pay"`
	VacationMoney                 *string         `json:"vacation_money"`
	OtherExpenses                 *string         `json:"other_expenses"`
	WorkingHours                  *string         `json:"working_hours"`
	CollectiveBargainingAgreement string          `json:"collective_bargaining_agreement"`
}

type LogEntryView struct {
	FromStatus models.ApplicationStatus `json:"from_status"`
	ToStatus   models.ApplicationStatus `json:"to_status"`
	Comment    string                   `json:"comment"`
	CreatedAt  time.Time                `json:"created_at"`
}

type PaySubsidyView struct {
	ID                  uuid.UUID `json:"id"`
	StartDate           string    `json:"start_date"`
	EndDate             string    `json:"end_date"`
	PaySubsidyPercent   int       `json:"pay_subsidy_percent"`
	WorkTimePercent     string    `json:"work_time_percent"`
	DisabilityOrIllness *bool     `json:"disability_or_illness"`
	Ordering            int       `json:"ordering"`
}

type CalculationView struct {
	ID                      uuid.UUID            `json:"id"`
	MonthlyPay              string               `json:"monthly_pay"`
	VacationMoney           string               `json:"vacation_money"`
	OtherExpenses           string               `json:"other_expenses"`
	StartDate               *string              `json:"start_date"`
	EndDate                 *string              `json:"end_date"`
	BenefitType             models.BenefitType   `json:"benefit_type"`
	CalculatedBenefitAmount string               `json:"calculated_benefit_amount"`
	Rows                    []CalculationRowView `json:"rows"`
	ModifiedAt              time.Time            `json:"modified_at"`
}

type CalculationRowView struct {
	RowType           models.CalculationRowType `json:"row_type"`
	Description       string                    `json:"description"`
	StartDate         *string                   `json:"start_date"`
	EndDate           *string                   `json:"end_date"`
	Months            string                    `json:"months"`
	PaySubsidyPercent string                    `json:"pay_subsidy_percent"`
	MonthlyPaySubsidy string                    `json:"monthly_pay_subsidy"`
	MonthlyBenefit    string                    `json:"monthly_benefit"`
	Amount            string                    `json:"amount"`
	Ordering          int                       `json:"ordering"`
}

func NewApplicantApplicationView(app *models.Application) ApplicantApplicationView {
	view := ApplicantApplicationView{
		ID:                                 app.ID,
		CompanyID:                          app.CompanyID,
		Status:                             app.Status,
		CompanyName:                        app.CompanyName,
		CompanyForm:                        app.CompanyForm,
		OrganizationType:                   app.OrganizationType,
		OfficialCompanyStreetAddress:       app.OfficialCompanyStreetAddress,
		OfficialCompanyCity:                app.OfficialCompanyCity,
		OfficialCompanyPostcode:            app.OfficialCompanyPostcode,
		UseAlternativeAddress:              app.UseAlternativeAddress,
		AlternativeCompanyStreetAddress:    app.AlternativeCompanyStreetAddress,
		AlternativeCompanyCity:             app.AlternativeCompanyCity,
		AlternativeCompanyPostcode:         app.AlternativeCompanyPostcode,
		CompanyBankAccountNumber:           app.CompanyBankAccountNumber,
		CompanyContactPersonPhoneNumber:    app.CompanyContactPersonPhoneNumber,
		CompanyContactPersonEmail:          app.CompanyContactPersonEmail,
		AssociationHasBusinessActivities:   app.AssociationHasBusinessActivities,
		ApplicantLanguage:                  app.ApplicantLanguage,
		CoOperationNegotiations:            app.CoOperationNegotiations,
		CoOperationNegotiationsDescription: app.CoOperationNegotiationsDescription,
		ApprenticeshipProgram:              app.ApprenticeshipProgram,
		BenefitType:                        app.BenefitType,
		AvailableBenefitTypes:              app.AvailableBenefitTypes(),
		StartDate:                          formatDate(app.StartDate),
		EndDate:                            formatDate(app.EndDate),
		DeMinimisAid:                       app.DeMinimisAid,
		DeMinimisAidSet:                    make([]DeMinimisAidView, 0, len(app.DeMinimisAids)),
		Bases:                              make([]string, 0, len(app.Bases)),
		LogEntries:                         make([]LogEntryView, 0, len(app.LogEntries)),
		CreatedAt:                          app.CreatedAt,
		ModifiedAt:                         app.UpdatedAt,
	}
	for _, aid := range app.DeMinimisAids {
		view.DeMinimisAidSet = append(view.DeMinimisAidSet, DeMinimisAidView{
			ID:        aid.ID,
			Granter:   aid.Granter,
			Amount:    aid.Amount.StringFixed(2),
			GrantedAt: formatDate(aid.GrantedAt),
			Ordering:  aid.Ordering,
		})
	}
	for _, basis := range app.Bases {
		view.Bases = append(view.Bases, basis.Identifier)
	}
	for _, entry := range app.LogEntries {
		view.LogEntries = append(view.LogEntries, LogEntryView{
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			Comment:    entry.Comment,
			CreatedAt:  entry.CreatedAt,
		})
	}
	if e := app.Employee; e != nil {
		view.Employee = &EmployeeView{
			ID:                            e.ID,
			FirstName:                     e.FirstName,
			LastName:                      e.LastName,
			SocialSecurityNumber:          e.SocialSecurityNumber,
			PhoneNumber:                   e.PhoneNumber,
			Email:                         e.Email,
			EmployeeLanguage:              e.EmployeeLanguage,
			JobTitle:                      e.JobTitle,
			MonthlyPay:                    formatDecimal(e.MonthlyPay, 2),
			VacationMoney:                 formatDecimal(e.VacationMoney, 2),
			OtherExpenses:                 formatDecimal(e.OtherExpenses, 2),
			WorkingHours:                  formatDecimal(e.WorkingHours, 1),
			CollectiveBargainingAgreement: e.CollectiveBargainingAgreement,
		}
	}
	return view
}

func NewHandlerApplicationView(app *models.Application) HandlerApplicationView {
	view := HandlerApplicationView{
		ApplicantApplicationView: NewApplicantApplicationView(app),
		Archived:                 app.Archived,
		BatchID:                  app.BatchID,
		PaySubsidies:             make([]PaySubsidyView, 0, len(app.PaySubsidies)),
	}
	for _, s := range app.PaySubsidies {
		view.PaySubsidies = append(view.PaySubsidies, PaySubsidyView{
			ID:                  s.ID,
			StartDate:           s.StartDate.Format(dateLayout),
			EndDate:             s.EndDate.Format(dateLayout),
			PaySubsidyPercent:   s.PaySubsidyPercent,
			WorkTimePercent:     s.WorkTimePercent.StringFixed(2),
			DisabilityOrIllness: s.DisabilityOrIllness,
			Ordering:            s.Ordering,
		})
	}
	if c := app.Calculation; c != nil {
		calc := &CalculationView{
			ID:                      c.ID,
			MonthlyPay:              c.MonthlyPay.StringFixed(2),
			VacationMoney:           c.VacationMoney.StringFixed(2),
			OtherExpenses:           c.OtherExpenses.StringFixed(2),
			StartDate:               formatDate(c.StartDate),
			EndDate:                 formatDate(c.EndDate),
			BenefitType:             c.BenefitType,
			CalculatedBenefitAmount: c.CalculatedBenefitAmount.StringFixed(2),
			Rows:                    make([]CalculationRowView, 0, len(c.Rows)),
			ModifiedAt:              c.UpdatedAt,
		}
		for _, row := range c.Rows {
			calc.Rows = append(calc.Rows, CalculationRowView{
				RowType:           row.RowType,
				Description:       row.Description,
				StartDate:         formatDate(row.StartDate),
				EndDate:           formatDate(row.EndDate),
				Months:            row.Months.StringFixed(2),
				PaySubsidyPercent: row.PaySubsidyPercent.StringFixed(2),
				MonthlyPaySubsidy: row.MonthlyPaySubsidy.StringFixed(2),
				MonthlyBenefit:    row.MonthlyBenefit.StringFixed(2),
				Amount:            row.Amount.StringFixed(2),
				Ordering:          row.Ordering,
			})
		}
		view.Calculation = calc
	}
	return view
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func formatDecimal(d *decimal.Decimal, places int32) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(places)
	return &s
}
