package services

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

const dateLayout = "2006-01-02"

// UpdateApplicationRequest is a partial write. A key missing from the payload
// leaves the field unchanged; Has reports which keys were sent.
type UpdateApplicationRequest struct {
	Status          *models.ApplicationStatus `json:"status"`
	LogEntryComment *string                   `json:"log_entry_comment" validate:"omitempty,max=2000"`

	CompanyName                  *string `json:"company_name" validate:"omitempty,max=256"`
	CompanyForm                  *string `json:"company_form" validate:"omitempty,max=64"`
	OfficialCompanyStreetAddress *string `json:"official_company_street_address" validate:"omitempty,max=256"`
	OfficialCompanyCity          *string `json:"official_company_city" validate:"omitempty,max=256"`
	OfficialCompanyPostcode      *string `json:"official_company_postcode" validate:"omitempty,postcode"`

	UseAlternativeAddress           *bool   `json:"use_alternative_address"`
	AlternativeCompanyStreetAddress *string `json:"alternative_company_street_address" validate:"omitempty,max=256"`
	AlternativeCompanyCity          *string `json:"alternative_company_city" validate:"omitempty,max=256"`
	AlternativeCompanyPostcode      *string `json:"alternative_company_postcode" validate:"omitempty,postcode"`

	CompanyBankAccountNumber        *string `json:"company_bank_account_number" validate:"omitempty,fi_bank_account"`
	CompanyContactPersonPhoneNumber *string `json:"company_contact_person_phone_number" validate:"omitempty,max=64"`
	CompanyContactPersonEmail       *string `json:"company_contact_person_email" validate:"omitempty,blank_or_email"`

	AssociationHasBusinessActivities   *bool            `json:"association_has_business_activities"`
	ApplicantLanguage                  *models.Language `json:"applicant_language" validate:"omitempty,oneof=fi sv en"`
	CoOperationNegotiations            *bool            `json:"co_operation_negotiations"`
	CoOperationNegotiationsDescription *string          `json:"co_operation_negotiations_description" validate:"omitempty,max=256"`
	ApprenticeshipProgram              *bool            `json:"apprenticeship_program"`
	Archived                           *bool            `json:"archived"`

	BenefitType *models.BenefitType `json:"benefit_type" validate:"omitempty,blank_or_oneof=employment_benefit salary_benefit commission_benefit"`
	StartDate   *string             `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string             `json:"end_date" validate:"omitempty,datetime=2006-01-02"`

	DeMinimisAid    *bool                  `json:"de_minimis_aid"`
	DeMinimisAidSet *[]DeMinimisAidRequest `json:"de_minimis_aid_set" validate:"omitempty,dive"`
	PaySubsidies    *[]PaySubsidyRequest   `json:"pay_subsidies" validate:"omitempty,dive"`
	Bases           *[]string              `json:"bases" validate:"omitempty,dive,max=64"`
	Employee        *EmployeeRequest       `json:"employee"`

	// Calculation is derived data. Whatever is sent here is ignored.
	Calculation json.RawMessage `json:"calculation" validate:"-"`

	present map[string]bool
}

func (r *UpdateApplicationRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateApplicationRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	present, err := presentKeys(data)
	if err != nil {
		return err
	}
	*r = UpdateApplicationRequest(p)
	r.present = present
	return nil
}

// Has reports whether the key was part of the payload. Requests built in code
// rather than decoded count every non-nil field as sent.
func (r *UpdateApplicationRequest) Has(key string) bool {
	if r.present != nil {
		return r.present[key]
	}
	return r.fieldSet(key)
}

func (r *UpdateApplicationRequest) fieldSet(key string) bool {
	switch key {
	case "status":
		return r.Status != nil
	case "company_name":
		return r.CompanyName != nil
	case "company_form":
		return r.CompanyForm != nil
	case "official_company_street_address":
		return r.OfficialCompanyStreetAddress != nil
	case "official_company_city":
		return r.OfficialCompanyCity != nil
	case "official_company_postcode":
		return r.OfficialCompanyPostcode != nil
	case "use_alternative_address":
		return r.UseAlternativeAddress != nil
	case "alternative_company_street_address":
		return r.AlternativeCompanyStreetAddress != nil
	case "alternative_company_city":
		return r.AlternativeCompanyCity != nil
	case "alternative_company_postcode":
		return r.AlternativeCompanyPostcode != nil
	case "company_bank_account_number":
		return r.CompanyBankAccountNumber != nil
	case "company_contact_person_phone_number":
		return r.CompanyContactPersonPhoneNumber != nil
	case "company_contact_person_email":
		return r.CompanyContactPersonEmail != nil
	case "association_has_business_activities":
		return r.AssociationHasBusinessActivities != nil
	case "applicant_language":
		return r.ApplicantLanguage != nil
	case "co_operation_negotiations":
		return r.CoOperationNegotiations != nil
	case "co_operation_negotiations_description":
		return r.CoOperationNegotiationsDescription != nil
	case "apprenticeship_program":
		return r.ApprenticeshipProgram != nil
	case "archived":
		return r.Archived != nil
	case "benefit_type":
		return r.BenefitType != nil
	case "start_date":
		return r.StartDate != nil
	case "end_date":
		return r.EndDate != nil
	case "de_minimis_aid":
		return r.DeMinimisAid != nil
	case "de_minimis_aid_set":
		return r.DeMinimisAidSet != nil
	case "pay_subsidies":
		return r.PaySubsidies != nil
	case "bases":
		return r.Bases != nil
	case "employee":
		return r.Employee != nil
	case "calculation":
		return r.Calculation != nil
	}
	return false
}

type DeMinimisAidRequest struct {
	ID        *uuid.UUID      `json:"id"`
	Granter   string          `json:"granter" validate:"required,max=64"`
	Amount    decimal.Decimal `json:"amount"`
	GrantedAt *string         `json:"granted_at" validate:"omitempty,datetime=2006-01-02"`
	Ordering  *int            `json:"ordering" validate:"omitempty,gte=0"`
}

type PaySubsidyRequest struct {
	ID                  *uuid.UUID       `json:"id"`
	StartDate           string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate             string           `json:"end_date" validate:"required,datetime=2006-01-02"`
	PaySubsidyPercent   *int             `json:"pay_subsidy_percent" validate:"required"`
	WorkTimePercent     *decimal.Decimal `json:"work_time_percent"`
	DisabilityOrIllness *bool            `json:"disability_or_illness"`
}

// EmployeeRequest is a partial write of the employee, tracked the same way as
// the application itself.
type EmployeeRequest struct {
	FirstName                     *string          `json:"first_name" validate:"omitempty,max=128"`
	LastName                      *string          `json:"last_name" validate:"omitempty,max=128"`
	SocialSecurityNumber          *string          `json:"social_security_number" validate:"omitempty,max=11"`
	PhoneNumber                   *string          `json:"phone_number" validate:"omitempty,max=64"`
	Email                         *string          `json:"email" validate:"omitempty,blank_or_email"`
	EmployeeLanguage              *models.Language `json:"employee_language" validate:"omitempty,oneof=fi sv en"`
	JobTitle                      *string          `json:"job_title" validate:"omitempty,max=128"`
	MonthlyPay                    *decimal.Decimal `json:"monthly_pay"`
	VacationMoney                 *decimal.Decimal `json:"vacation_money"`
	OtherExpenses                 *decimal.Decimal `json:"other_expenses"`
	WorkingHours                  *decimal.Decimal `json:"working_hours"`
	CollectiveBargainingAgreement *string          `json:"collective_bargaining_agreement" validate:"omitempty,max=64"`

	present map[string]bool
}

func (r *EmployeeRequest) UnmarshalJSON(data []byte) error {
	type plain EmployeeRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	present, err := presentKeys(data)
	if err != nil {
		return err
	}
	*r = EmployeeRequest(p)
	r.present = present
	return nil
}

func (r *EmployeeRequest) Has(key string) bool {
	if r.present != nil {
		return r.present[key]
	}
	switch key {
	case "first_name":
		return r.FirstName != nil
	case "last_name":
		return r.LastName != nil
	case "social_security_number":
		return r.SocialSecurityNumber != nil
	case "phone_number":
		return r.PhoneNumber != nil
	case "email":
		return r.Email != nil
	case "employee_language":
		return r.EmployeeLanguage != nil
	case "job_title":
		return r.JobTitle != nil
	case "monthly_pay":
		return r.MonthlyPay != nil
	case "vacation_money":
		return r.VacationMoney != nil
	case "other_expenses":
		return r.OtherExpenses != nil
	case "working_hours":
		return r.WorkingHours != nil
	case "collective_bargaining_agreement":
		return r.CollectiveBargainingAgreement != nil
	}
	return false
}

// CreateApplicationRequest starts a new draft. Applicants create for the
// company in their token; handlers name the company by business id.
type CreateApplicationRequest struct {
	BusinessID        string              `json:"business_id" validate:"omitempty,business_id"`
	BenefitType       *models.BenefitType `json:"benefit_type" validate:"omitempty,blank_or_oneof=employment_benefit salary_benefit commission_benefit"`
	ApplicantLanguage *models.Language    `json:"applicant_language" validate:"omitempty,oneof=fi sv en"`
	Employee          *EmployeeRequest    `json:"employee"`
}

func presentKeys(data []byte) (map[string]bool, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(keys))
	for k := range keys {
		present[k] = true
	}
	return present, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// parseOptionalDate returns nil for a nil or empty value.
func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
