// Package calculator computes the Helsinki benefit for an application.
//
// The benefit period is split into sub-periods at every pay subsidy boundary.
// Each sub-period gets one row with the pay subsidy in force and the benefit
// for that stretch of time; a final row carries the total. All arithmetic is
// fixed-point.
package calculator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

var ErrCalculation = errors.New("calculation failed")

var (
	// MaxMonthlyBenefit is the upper limit of the Helsinki benefit per month.
	MaxMonthlyBenefit = decimal.RequireFromString("800.00")
	// MaxMonthlyPaySubsidy is the upper limit of one pay subsidy per month.
	MaxMonthlyPaySubsidy = decimal.RequireFromString("1400.00")
	// MaxMonthlyPaySubsidyDisability applies to 100% subsidies granted on
	// grounds of disability or illness.
	MaxMonthlyPaySubsidyDisability = decimal.RequireFromString("1800.00")

	hundred = decimal.NewFromInt(100)
)

const dateLayout = "2006-01-02"

// Result is the outcome of one calculation run.
type Result struct {
	MonthlyPay    decimal.Decimal
	VacationMoney decimal.Decimal
	OtherExpenses decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	BenefitType   models.BenefitType
	Total         decimal.Decimal
	Rows          []models.CalculationRow
}

// Engine is stateless; the zero value is ready to use.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Calculate computes the benefit rows for the application. The application is
// not modified.
func (e *Engine) Calculate(app *models.Application) (*Result, error) {
	in, err := inputFromApplication(app)
	if err != nil {
		return nil, err
	}

	salaryCosts := in.monthlyPay.Add(in.vacationMoney).Add(in.otherExpenses)

	result := &Result{
		MonthlyPay:    in.monthlyPay,
		VacationMoney: in.vacationMoney,
		OtherExpenses: in.otherExpenses,
		StartDate:     in.start,
		EndDate:       in.end,
		BenefitType:   in.benefitType,
		Total:         decimal.Zero,
	}

	for i, period := range splitPeriods(in.start, in.end, in.subsidies) {
		active := activeSubsidies(period, in.subsidies)

		percent := decimal.Zero
		paySubsidy := decimal.Zero
		for _, s := range active {
			percent = percent.Add(decimal.NewFromInt(int64(s.PaySubsidyPercent)))
			paySubsidy = paySubsidy.Add(monthlyPaySubsidy(salaryCosts, s))
		}
		if paySubsidy.GreaterThan(salaryCosts) {
			paySubsidy = salaryCosts
		}

		monthly := monthlyBenefit(in.benefitType, salaryCosts, paySubsidy)
		months := monthsBetween(period.start, period.end)
		amount := monthly.Mul(months).Round(2)

		start, end := period.start, period.end
		result.Rows = append(result.Rows, models.CalculationRow{
			Ordering:          i,
			RowType:           models.CalculationRowTypeSubPeriod,
			Description:       fmt.Sprintf("Benefit %s - %s", start.Format(dateLayout), end.Format(dateLayout)),
			StartDate:         &start,
			EndDate:           &end,
			Months:            months,
			PaySubsidyPercent: percent,
			MonthlyPaySubsidy: paySubsidy.Round(2),
			MonthlyBenefit:    monthly.Round(2),
			Amount:            amount,
		})
		result.Total = result.Total.Add(amount)
	}

	start, end := in.start, in.end
	result.Rows = append(result.Rows, models.CalculationRow{
		Ordering:          len(result.Rows),
		RowType:           models.CalculationRowTypeTotal,
		Description:       "Total benefit",
		StartDate:         &start,
		EndDate:           &end,
		Months:            monthsBetween(in.start, in.end),
		PaySubsidyPercent: decimal.Zero,
		MonthlyPaySubsidy: decimal.Zero,
		MonthlyBenefit:    decimal.Zero,
		Amount:            result.Total,
	})

	return result, nil
}

type input struct {
	monthlyPay    decimal.Decimal
	vacationMoney decimal.Decimal
	otherExpenses decimal.Decimal
	start         time.Time
	end           time.Time
	benefitType   models.BenefitType
	subsidies     []models.PaySubsidy
}

func inputFromApplication(app *models.Application) (*input, error) {
	if app.Employee == nil || app.Employee.MonthlyPay == nil {
		return nil, fmt.Errorf("%w: monthly pay is missing", ErrCalculation)
	}
	if app.StartDate == nil || app.EndDate == nil {
		return nil, fmt.Errorf("%w: benefit period is missing", ErrCalculation)
	}
	if !app.BenefitType.IsValid() {
		return nil, fmt.Errorf("%w: benefit type is missing", ErrCalculation)
	}

	in := &input{
		monthlyPay:  *app.Employee.MonthlyPay,
		start:       truncateDay(*app.StartDate),
		end:         truncateDay(*app.EndDate),
		benefitType: app.BenefitType,
	}
	if app.Employee.VacationMoney != nil {
		in.vacationMoney = *app.Employee.VacationMoney
	}
	if app.Employee.OtherExpenses != nil {
		in.otherExpenses = *app.Employee.OtherExpenses
	}
	if in.monthlyPay.IsNegative() || in.vacationMoney.IsNegative() || in.otherExpenses.IsNegative() {
		return nil, fmt.Errorf("%w: salary costs can not be negative", ErrCalculation)
	}
	if in.end.Before(in.start) {
		return nil, fmt.Errorf("%w: benefit end date is before start date", ErrCalculation)
	}

	for i, s := range app.PaySubsidies {
		if s.PaySubsidyPercent < 0 || s.PaySubsidyPercent > 100 {
			return nil, fmt.Errorf("%w: pay subsidy %d percent out of range", ErrCalculation, i)
		}
		if s.WorkTimePercent.IsNegative() || s.WorkTimePercent.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: pay subsidy %d work time percent out of range", ErrCalculation, i)
		}
		s.StartDate = truncateDay(s.StartDate)
		s.EndDate = truncateDay(s.EndDate)
		if s.EndDate.Before(s.StartDate) {
			return nil, fmt.Errorf("%w: pay subsidy %d ends before it starts", ErrCalculation, i)
		}
		in.subsidies = append(in.subsidies, s)
	}
	return in, nil
}

// monthlyPaySubsidy is the subsidy one entry pays per month.
func monthlyPaySubsidy(salaryCosts decimal.Decimal, s models.PaySubsidy) decimal.Decimal {
	limit := MaxMonthlyPaySubsidy
	if s.PaySubsidyPercent == 100 && s.DisabilityOrIllness != nil && *s.DisabilityOrIllness {
		limit = MaxMonthlyPaySubsidyDisability
	}
	amount := salaryCosts.
		Mul(decimal.NewFromInt(int64(s.PaySubsidyPercent))).
		Mul(s.WorkTimePercent).
		Div(hundred).
		Div(hundred)
	return decimal.Min(amount, limit)
}

func monthlyBenefit(benefitType models.BenefitType, salaryCosts, paySubsidy decimal.Decimal) decimal.Decimal {
	if benefitType != models.BenefitTypeSalary {
		return MaxMonthlyBenefit
	}
	remaining := salaryCosts.Sub(paySubsidy)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return decimal.Min(remaining, MaxMonthlyBenefit)
}

type period struct {
	start time.Time
	end   time.Time
}

// splitPeriods cuts [start, end] at the edges of every pay subsidy that
// overlaps it. Both bounds are inclusive days.
func splitPeriods(start, end time.Time, subsidies []models.PaySubsidy) []period {
	cuts := map[time.Time]struct{}{
		start:                {},
		end.AddDate(0, 0, 1): {},
	}
	for _, s := range subsidies {
		from, to := maxTime(s.StartDate, start), minTime(s.EndDate, end)
		if from.After(to) {
			continue
		}
		cuts[from] = struct{}{}
		cuts[to.AddDate(0, 0, 1)] = struct{}{}
	}

	bounds := make([]time.Time, 0, len(cuts))
	for t := range cuts {
		bounds = append(bounds, t)
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].Before(bounds[j]) })

	periods := make([]period, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		periods = append(periods, period{start: bounds[i], end: bounds[i+1].AddDate(0, 0, -1)})
	}
	return periods
}

func activeSubsidies(p period, subsidies []models.PaySubsidy) []models.PaySubsidy {
	var active []models.PaySubsidy
	for _, s := range subsidies {
		if !s.StartDate.After(p.start) && !s.EndDate.Before(p.end) {
			active = append(active, s)
		}
	}
	return active
}

// monthsBetween counts whole calendar months from start and adds the
// remaining days as a fraction of the month they fall in.
func monthsBetween(start, end time.Time) decimal.Decimal {
	dayAfterEnd := end.AddDate(0, 0, 1)
	months := 0
	for !start.AddDate(0, months+1, 0).After(dayAfterEnd) {
		months++
	}
	cursor := start.AddDate(0, months, 0)

	result := decimal.NewFromInt(int64(months))
	if cursor.Before(dayAfterEnd) {
		remaining := int64(dayAfterEnd.Sub(cursor).Hours() / 24)
		result = result.Add(decimal.NewFromInt(remaining).DivRound(decimal.NewFromInt(int64(daysIn(cursor))), 6))
	}
	return result.Round(2)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
