package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

// applyScalarEdits copies the sent scalar fields onto app. The company
// snapshot is only writable while the application is a draft; afterwards
// those keys are dropped without error.
func applyScalarEdits(app *models.Application, req *UpdateApplicationRequest, draft bool) error {
	if draft {
		setString(req, "company_name", req.CompanyName, &app.CompanyName)
		setString(req, "company_form", req.CompanyForm, &app.CompanyForm)
		setString(req, "official_company_street_address", req.OfficialCompanyStreetAddress, &app.OfficialCompanyStreetAddress)
		setString(req, "official_company_city", req.OfficialCompanyCity, &app.OfficialCompanyCity)
		setString(req, "official_company_postcode", req.OfficialCompanyPostcode, &app.OfficialCompanyPostcode)
	}

	if req.Has("use_alternative_address") && req.UseAlternativeAddress != nil {
		app.UseAlternativeAddress = *req.UseAlternativeAddress
	}
	setString(req, "alternative_company_street_address", req.AlternativeCompanyStreetAddress, &app.AlternativeCompanyStreetAddress)
	setString(req, "alternative_company_city", req.AlternativeCompanyCity, &app.AlternativeCompanyCity)
	setString(req, "alternative_company_postcode", req.AlternativeCompanyPostcode, &app.AlternativeCompanyPostcode)

	setString(req, "company_bank_account_number", req.CompanyBankAccountNumber, &app.CompanyBankAccountNumber)
	setString(req, "company_contact_person_phone_number", req.CompanyContactPersonPhoneNumber, &app.CompanyContactPersonPhoneNumber)
	setString(req, "company_contact_person_email", req.CompanyContactPersonEmail, &app.CompanyContactPersonEmail)
	setString(req, "co_operation_negotiations_description", req.CoOperationNegotiationsDescription, &app.CoOperationNegotiationsDescription)

	setOptionalBool(req, "association_has_business_activities", req.AssociationHasBusinessActivities, &app.AssociationHasBusinessActivities)
	setOptionalBool(req, "co_operation_negotiations", req.CoOperationNegotiations, &app.CoOperationNegotiations)
	setOptionalBool(req, "apprenticeship_program", req.ApprenticeshipProgram, &app.ApprenticeshipProgram)
	setOptionalBool(req, "de_minimis_aid", req.DeMinimisAid, &app.DeMinimisAid)

	if req.Has("applicant_language") && req.ApplicantLanguage != nil {
		app.ApplicantLanguage = *req.ApplicantLanguage
	}
	if req.Has("archived") && req.Archived != nil {
		app.Archived = *req.Archived
	}
	if req.Has("benefit_type") {
		app.BenefitType = ""
		if req.BenefitType != nil {
			app.BenefitType = *req.BenefitType
		}
	}

	if req.Has("start_date") {
		start, err := parseOptionalDate(req.StartDate)
		if err != nil {
			return fieldError("start_date", err)
		}
		app.StartDate = start
	}
	if req.Has("end_date") {
		end, err := parseOptionalDate(req.EndDate)
		if err != nil {
			return fieldError("end_date", err)
		}
		app.EndDate = end
	}

	if req.Has("employee") && req.Employee != nil {
		if app.Employee == nil {
			app.Employee = &models.Employee{ApplicationID: app.ID, EmployeeLanguage: models.LanguageFinnish}
		}
		applyEmployeeEdits(app.Employee, req.Employee)
	}
	return nil
}

func applyEmployeeEdits(e *models.Employee, req *EmployeeRequest) {
	setString(req, "first_name", req.FirstName, &e.FirstName)
	setString(req, "last_name", req.LastName, &e.LastName)
	setString(req, "social_security_number", req.SocialSecurityNumber, &e.SocialSecurityNumber)
	setString(req, "phone_number", req.PhoneNumber, &e.PhoneNumber)
	setString(req, "email", req.Email, &e.Email)
	setString(req, "job_title", req.JobTitle, &e.JobTitle)
	setString(req, "collective_bargaining_agreement", req.CollectiveBargainingAgreement, &e.CollectiveBargainingAgreement)
	if req.Has("employee_language") && req.EmployeeLanguage != nil {
		e.EmployeeLanguage = *req.EmployeeLanguage
	}
	setOptionalDecimal(req, "monthly_pay", req.MonthlyPay, &e.MonthlyPay)
	setOptionalDecimal(req, "vacation_money", req.VacationMoney, &e.VacationMoney)
	setOptionalDecimal(req, "other_expenses", req.OtherExpenses, &e.OtherExpenses)
	setOptionalDecimal(req, "working_hours", req.WorkingHours, &e.WorkingHours)
}

type presence interface {
	Has(key string) bool
}

// setString treats an explicit null as clearing the field.
func setString(req presence, key string, value *string, dst *string) {
	if !req.Has(key) {
		return
	}
	if value == nil {
		*dst = ""
		return
	}
	*dst = *value
}

func setOptionalBool(req presence, key string, value *bool, dst **bool) {
	if !req.Has(key) {
		return
	}
	if value == nil {
		*dst = nil
		return
	}
	v := *value
	*dst = &v
}

func setOptionalDecimal(req presence, key string, value *decimal.Decimal, dst **decimal.Decimal) {
	if !req.Has(key) {
		return
	}
	if value == nil {
		*dst = nil
		return
	}
	v := *value
	*dst = &v
}

// buildPaySubsidies turns the sent list into the complete new set. Entries
// with an id update that row, entries without one become new rows, and list
// position becomes the ordering.
func buildPaySubsidies(existing []models.PaySubsidy, reqs []PaySubsidyRequest, errs *ValidationError) []models.PaySubsidy {
	byID := make(map[uuid.UUID]models.PaySubsidy, len(existing))
	for _, s := range existing {
		byID[s.ID] = s
	}

	subsidies := make([]models.PaySubsidy, 0, len(reqs))
	for i, r := range reqs {
		prefix := fmt.Sprintf("pay_subsidies[%d].", i)
		var s models.PaySubsidy
		if r.ID != nil {
			found, ok := byID[*r.ID]
			if !ok {
				errs.Add(prefix+"id", "exists", "pay subsidy does not belong to this application")
				continue
			}
			s = found
		}

		start, err := parseDate(r.StartDate)
		if err != nil {
			errs.Add(prefix+"start_date", "datetime", err.Error())
			continue
		}
		end, err := parseDate(r.EndDate)
		if err != nil {
			errs.Add(prefix+"end_date", "datetime", err.Error())
			continue
		}
		s.StartDate = start
		s.EndDate = end
		if r.PaySubsidyPercent != nil {
			s.PaySubsidyPercent = *r.PaySubsidyPercent
		}
		s.WorkTimePercent = hundred
		if r.WorkTimePercent != nil {
			s.WorkTimePercent = *r.WorkTimePercent
		}
		s.DisabilityOrIllness = nil
		if r.DisabilityOrIllness != nil {
			v := *r.DisabilityOrIllness
			s.DisabilityOrIllness = &v
		}
		s.Ordering = i
		subsidies = append(subsidies, s)
	}
	return subsidies
}

// buildDeMinimisAids works like buildPaySubsidies but honours an explicit
// ordering, falling back to list position.
func buildDeMinimisAids(existing []models.DeMinimisAid, reqs []DeMinimisAidRequest, errs *ValidationError) []models.DeMinimisAid {
	byID := make(map[uuid.UUID]models.DeMinimisAid, len(existing))
	for _, a := range existing {
		byID[a.ID] = a
	}

	aids := make([]models.DeMinimisAid, 0, len(reqs))
	for i, r := range reqs {
		prefix := fmt.Sprintf("de_minimis_aid_set[%d].", i)
		var a models.DeMinimisAid
		if r.ID != nil {
			found, ok := byID[*r.ID]
			if !ok {
				errs.Add(prefix+"id", "exists", "de minimis aid does not belong to this application")
				continue
			}
			a = found
		}

		grantedAt, err := parseOptionalDate(r.GrantedAt)
		if err != nil {
			errs.Add(prefix+"granted_at", "datetime", err.Error())
			continue
		}
		a.Granter = r.Granter
		a.Amount = r.Amount
		a.GrantedAt = grantedAt
		a.Ordering = i
		if r.Ordering != nil {
			a.Ordering = *r.Ordering
		}
		aids = append(aids, a)
	}
	return aids
}

func fieldError(field string, err error) error {
	errs := &ValidationError{}
	errs.Add(field, "datetime", err.Error())
	return errs
}
