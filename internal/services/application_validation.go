package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

var hundred = decimal.NewFromInt(100)

// validateRequest collects the tag based field errors of the payload.
func validateRequest(req interface{}, errs *ValidationError) {
	if err := utils.ValidateStruct(req); err != nil {
		errs.Errors = append(errs.Errors, utils.GetValidationErrors(err)...)
	}
}

// ValidateApplication checks the invariants an application must satisfy after
// every write. All violations are reported together.
func ValidateApplication(app *models.Application) error {
	errs := &ValidationError{}
	validateApplication(app, errs)
	return errs.OrNil()
}

func validateApplication(app *models.Application, errs *ValidationError) {
	if app.BenefitType != "" && !app.IsBenefitTypeAvailable(app.BenefitType) {
		errs.Add("benefit_type", "available",
			fmt.Sprintf("benefit type %s is not available for this organization", app.BenefitType))
	}

	if app.DeMinimisAid != nil {
		if *app.DeMinimisAid && len(app.DeMinimisAids) == 0 {
			errs.Add("de_minimis_aid", "consistency", "de minimis aid is selected but no aids are listed")
		}
		if !*app.DeMinimisAid && len(app.DeMinimisAids) > 0 {
			errs.Add("de_minimis_aid", "consistency", "de minimis aids are listed but de minimis aid is not selected")
		}
	}

	if app.UseAlternativeAddress {
		required := []struct {
			field string
			value string
		}{
			{"alternative_company_street_address", app.AlternativeCompanyStreetAddress},
			{"alternative_company_city", app.AlternativeCompanyCity},
			{"alternative_company_postcode", app.AlternativeCompanyPostcode},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				errs.Add(r.field, "required", r.field+" is required when the alternative address is used")
			}
		}
	}

	if app.StartDate != nil && app.EndDate != nil && app.EndDate.Before(*app.StartDate) {
		errs.Add("end_date", "gtefield", "end date must not be before start date")
	}

	if app.Employee != nil {
		amounts := []struct {
			field string
			value *decimal.Decimal
		}{
			{"employee.monthly_pay", app.Employee.MonthlyPay},
			{"employee.vacation_money", app.Employee.VacationMoney},
			{"employee.other_expenses", app.Employee.OtherExpenses},
			{"employee.working_hours", app.Employee.WorkingHours},
		}
		for _, a := range amounts {
			if a.value != nil && a.value.IsNegative() {
				errs.Add(a.field, "gte", a.field+" must not be negative")
			}
		}
	}

	validatePaySubsidies(app.PaySubsidies, errs)
	validateDeMinimisAids(app.DeMinimisAids, errs)
}

func validatePaySubsidies(subsidies []models.PaySubsidy, errs *ValidationError) {
	for i, s := range subsidies {
		prefix := fmt.Sprintf("pay_subsidies[%d].", i)
		if s.PaySubsidyPercent < 0 || s.PaySubsidyPercent > 100 {
			errs.Add(prefix+"pay_subsidy_percent", "range", "pay subsidy percent must be between 0 and 100")
		}
		if s.WorkTimePercent.IsNegative() || s.WorkTimePercent.GreaterThan(hundred) {
			errs.Add(prefix+"work_time_percent", "range", "work time percent must be between 0 and 100")
		}
		if s.EndDate.Before(s.StartDate) {
			errs.Add(prefix+"end_date", "gtefield", "pay subsidy end date must not be before start date")
		}
	}
}

func validateDeMinimisAids(aids []models.DeMinimisAid, errs *ValidationError) {
	seen := make(map[int]bool, len(aids))
	for i, aid := range aids {
		prefix := fmt.Sprintf("de_minimis_aid_set[%d].", i)
		if !aid.Amount.IsPositive() {
			errs.Add(prefix+"amount", "gt", "amount must be greater than zero")
		}
		if seen[aid.Ordering] {
			errs.Add(prefix+"ordering", "unique", fmt.Sprintf("ordering %d is used more than once", aid.Ordering))
		}
		seen[aid.Ordering] = true
	}
}
