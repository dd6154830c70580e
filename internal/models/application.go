// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Application is a Helsinki benefit application.
//
// The company name, form and official address are copied from the company
// directory when the application is created and are never resynced, so the
// application keeps the data as it was at that time.
//
// There can be only one employee per application and employees are never
// shared between applications.
type Application struct {
	BaseModel
	CompanyID uuid.UUID         `json:"company_id" gorm:"type:uuid;not null;index"`
	Status    ApplicationStatus `json:"status" gorm:"type:varchar(64);not null;default:'draft';index"`

	CompanyName                  string           `json:"company_name" gorm:"size:256;not null"`
	CompanyForm                  string           `json:"company_form" gorm:"size:64;not null"`
	OrganizationType             OrganizationType `json:"organization_type" gorm:"type:varchar(32);not null;default:'company'"`
	OfficialCompanyStreetAddress string           `json:"official_company_street_address" gorm:"size:256"`
	OfficialCompanyCity          string           `json:"official_company_city" gorm:"size:256"`
	OfficialCompanyPostcode      string           `json:"official_company_postcode" gorm:"size:256"`

	UseAlternativeAddress           bool   `json:"use_alternative_address" gorm:"not null;default:false"`
	AlternativeCompanyStreetAddress string `json:"alternative_company_street_address" gorm:"size:256"`
	AlternativeCompanyCity          string `json:"alternative_company_city" gorm:"size:256"`
	AlternativeCompanyPostcode      string `json:"alternative_company_postcode" gorm:"size:256"`

	CompanyBankAccountNumber        string `json:"company_bank_account_number" gorm:"size:34"`
	CompanyContactPersonPhoneNumber string `json:"company_contact_person_phone_number" gorm:"size:64"`
	CompanyContactPersonEmail       string `json:"company_contact_person_email" gorm:"size:254"`

	// Only meaningful for associations; nil for ordinary companies.
	AssociationHasBusinessActivities *bool `json:"association_has_business_activities"`

	ApplicantLanguage                  Language `json:"applicant_language" gorm:"type:varchar(2);not null;default:'fi'"`
	CoOperationNegotiations            *bool    `json:"co_operation_negotiations"`
	CoOperationNegotiationsDescription string   `json:"co_operation_negotiations_description" gorm:"size:256"`
	ApprenticeshipProgram              *bool    `json:"apprenticeship_program"`
	Archived                           bool     `json:"archived" gorm:"not null;default:false;index"`

	BenefitType BenefitType `json:"benefit_type" gorm:"type:varchar(64)"`
	StartDate   *time.Time  `json:"start_date" gorm:"type:date"`
	EndDate     *time.Time  `json:"end_date" gorm:"type:date"`

	// nil means the applicant has not made the selection. true requires at
	// least one DeMinimisAid row, false requires none.
	DeMinimisAid *bool `json:"de_minimis_aid"`

	BatchID *uuid.UUID `json:"batch_id" gorm:"type:uuid;index"`

	// Relationships
	Company       *Company              `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Employee      *Employee             `json:"employee,omitempty" gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	DeMinimisAids []DeMinimisAid        `json:"de_minimis_aid_set" gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	PaySubsidies  []PaySubsidy          `json:"pay_subsidies,omitempty" gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	Calculation   *Calculation          `json:"calculation,omitempty" gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	Bases         []ApplicationBasis    `json:"bases" gorm:"many2many:bf_applications_application_bases"`
	LogEntries    []ApplicationLogEntry `json:"log_entries,omitempty" gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
}

func (Application) TableName() string { return "bf_applications_application" }

func (a *Application) IsAssociationApplication() bool {
	return a.OrganizationType == OrganizationTypeAssociation
}

// AvailableBenefitTypes returns the benefit types the organization may apply
// for. An association without business activities can only get salary benefit.
func (a *Application) AvailableBenefitTypes() []BenefitType {
	if a.IsAssociationApplication() &&
		(a.AssociationHasBusinessActivities == nil || !*a.AssociationHasBusinessActivities) {
		return []BenefitType{BenefitTypeSalary}
	}
	return []BenefitType{BenefitTypeSalary, BenefitTypeCommission, BenefitTypeEmployment}
}

func (a *Application) IsBenefitTypeAvailable(benefitType BenefitType) bool {
	for _, available := range a.AvailableBenefitTypes() {
		if available == benefitType {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the application and everything it owns. The
// shared Company and ApplicationBasis rows are copied by value as well.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	c.AssociationHasBusinessActivities = cloneBool(a.AssociationHasBusinessActivities)
	c.CoOperationNegotiations = cloneBool(a.CoOperationNegotiations)
	c.ApprenticeshipProgram = cloneBool(a.ApprenticeshipProgram)
	c.DeMinimisAid = cloneBool(a.DeMinimisAid)
	c.StartDate = cloneTime(a.StartDate)
	c.EndDate = cloneTime(a.EndDate)
	if a.BatchID != nil {
		id := *a.BatchID
		c.BatchID = &id
	}
	if a.Company != nil {
		company := *a.Company
		c.Company = &company
	}
	if a.Employee != nil {
		c.Employee = a.Employee.Clone()
	}
	if a.DeMinimisAids != nil {
		c.DeMinimisAids = make([]DeMinimisAid, len(a.DeMinimisAids))
		for i := range a.DeMinimisAids {
			c.DeMinimisAids[i] = a.DeMinimisAids[i]
			c.DeMinimisAids[i].GrantedAt = cloneTime(a.DeMinimisAids[i].GrantedAt)
		}
	}
	if a.PaySubsidies != nil {
		c.PaySubsidies = make([]PaySubsidy, len(a.PaySubsidies))
		for i := range a.PaySubsidies {
			c.PaySubsidies[i] = a.PaySubsidies[i]
			c.PaySubsidies[i].DisabilityOrIllness = cloneBool(a.PaySubsidies[i].DisabilityOrIllness)
		}
	}
	if a.Calculation != nil {
		c.Calculation = a.Calculation.Clone()
	}
	if a.Bases != nil {
		c.Bases = append([]ApplicationBasis(nil), a.Bases...)
	}
	if a.LogEntries != nil {
		c.LogEntries = append([]ApplicationLogEntry(nil), a.LogEntries...)
	}
	return &c
}

// DeMinimisAid is a previously granted aid the applicant has to disclose.
type DeMinimisAid struct {
	BaseModel
	ApplicationID uuid.UUID       `json:"application_id" gorm:"type:uuid;not null;uniqueIndex:idx_de_minimis_application_ordering"`
	Granter       string          `json:"granter" gorm:"size:64;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(8,2);not null"`
	GrantedAt     *time.Time      `json:"granted_at" gorm:"type:date"`
	Ordering      int             `json:"ordering" gorm:"not null;default:0;uniqueIndex:idx_de_minimis_application_ordering"`
}

func (DeMinimisAid) TableName() string { return "bf_applications_deminimisaid" }

// ApplicationLogEntry records one status transition. Entries are written once
// and never modified.
type ApplicationLogEntry struct {
	BaseModel
	ApplicationID uuid.UUID         `json:"application_id" gorm:"type:uuid;not null;index"`
	FromStatus    ApplicationStatus `json:"from_status" gorm:"type:varchar(64)"`
	ToStatus      ApplicationStatus `json:"to_status" gorm:"type:varchar(64);not null"`
	Comment       string            `json:"comment" gorm:"type:text"`
}

func (ApplicationLogEntry) TableName() string { return "bf_applications_applicationlogentry" }

// ApplicationBasis is a justification for the application. The identifier is
// not shown to end users; the UI localizes it.
type ApplicationBasis struct {
	BaseModel
	Identifier string `json:"identifier" gorm:"size:64;not null;uniqueIndex"`
	IsActive   bool   `json:"is_active" gorm:"not null;default:true"`
}

func (ApplicationBasis) TableName() string { return "bf_applications_applicationbasis" }

type Employee struct {
	BaseModel
	ApplicationID                 uuid.UUID        `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	FirstName                     string           `json:"first_name" gorm:"size:128"`
	LastName                      string           `json:"last_name" gorm:"size:128"`
	SocialSecurityNumber          string           `json:"social_security_number" gorm:"size:11"`
	PhoneNumber                   string           `json:"phone_number" gorm:"size:64"`
	Email                         string           `json:"email" gorm:"size:254"`
	EmployeeLanguage              Language         `json:"employee_language" gorm:"type:varchar(2);not null;default:'fi'"`
	JobTitle                      string           `json:"job_title" gorm:"size:128"`
	MonthlyPay                    *decimal.Decimal `json:"monthly_pay" gorm:"type:decimal(7,2)"`
	VacationMoney                 *decimal.Decimal `json:"vacation_money" gorm:"type:decimal(7,2)"`
	OtherExpenses                 *decimal.Decimal `json:"other_expenses" gorm:"type:decimal(7,2)"`
	WorkingHours                  *decimal.Decimal `json:"working_hours" gorm:"type:decimal(4,1)"`
	CollectiveBargainingAgreement string           `json:"collective_bargaining_agreement" gorm:"size:64"`
}

func (Employee) TableName() string { return "bf_applications_employee" }

func (e *Employee) Clone() *Employee {
	c := *e
	c.MonthlyPay = cloneDecimal(e.MonthlyPay)
	c.VacationMoney = cloneDecimal(e.VacationMoney)
	c.OtherExpenses = cloneDecimal(e.OtherExpenses)
	c.WorkingHours = cloneDecimal(e.WorkingHours)
	return &c
}

// Company is the local mirror of the official company directory.
type Company struct {
	BaseModel
	BusinessID      string `json:"business_id" gorm:"size:64;not null;uniqueIndex"`
	Name            string `json:"name" gorm:"size:256;not null"`
	CompanyForm     string `json:"company_form" gorm:"size:64;not null"`
	CompanyFormCode int    `json:"company_form_code" gorm:"not null"`
	StreetAddress   string `json:"street_address" gorm:"size:256"`
	City            string `json:"city" gorm:"size:256"`
	Postcode        string `json:"postcode" gorm:"size:256"`
}

func (Company) TableName() string { return "bf_companies_company" }

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	b := *v
	return &b
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}

func cloneDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := *v
	return &d
}
