package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

func date(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func salaryApplication() *models.Application {
	return &models.Application{
		BenefitType: models.BenefitTypeSalary,
		StartDate:   datePtr("2021-01-01"),
		EndDate:     datePtr("2021-06-30"),
		Employee: &models.Employee{
			MonthlyPay: dec("2000.00"),
		},
	}
}

func TestCalculateWithoutPaySubsidy(t *testing.T) {
	result, err := New().Calculate(salaryApplication())
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, models.CalculationRowTypeSubPeriod, result.Rows[0].RowType)
	assert.Equal(t, "6", result.Rows[0].Months.String())
	assert.Equal(t, "800.00", result.Rows[0].MonthlyBenefit.StringFixed(2))
	assert.Equal(t, "4800.00", result.Rows[0].Amount.StringFixed(2))

	assert.Equal(t, models.CalculationRowTypeTotal, result.Rows[1].RowType)
	assert.Equal(t, "4800.00", result.Total.StringFixed(2))
	assert.Equal(t, "2000.00", result.MonthlyPay.StringFixed(2))
}

func TestCalculateSplitsAtPaySubsidyBoundaries(t *testing.T) {
	app := salaryApplication()
	app.Employee.MonthlyPay = dec("2500.00")
	app.PaySubsidies = []models.PaySubsidy{
		{
			StartDate:         date("2021-02-01"),
			EndDate:           date("2021-03-31"),
			PaySubsidyPercent: 50,
			WorkTimePercent:   decimal.NewFromInt(100),
		},
	}

	result, err := New().Calculate(app)
	require.NoError(t, err)

	// January, February-March, April-June, total
	require.Len(t, result.Rows, 4)
	assert.Equal(t, "2021-01-01", result.Rows[0].StartDate.Format(dateLayout))
	assert.Equal(t, "2021-01-31", result.Rows[0].EndDate.Format(dateLayout))
	assert.Equal(t, "2021-02-01", result.Rows[1].StartDate.Format(dateLayout))
	assert.Equal(t, "2021-03-31", result.Rows[1].EndDate.Format(dateLayout))
	assert.Equal(t, "2021-04-01", result.Rows[2].StartDate.Format(dateLayout))

	// 2500 * 50% = 1250 subsidy, 1250 left, capped at 800
	assert.Equal(t, "1250.00", result.Rows[1].MonthlyPaySubsidy.StringFixed(2))
	assert.Equal(t, "800.00", result.Rows[1].MonthlyBenefit.StringFixed(2))
	assert.Equal(t, "50", result.Rows[1].PaySubsidyPercent.String())
	assert.True(t, result.Rows[0].PaySubsidyPercent.IsZero())
	assert.Equal(t, "4800.00", result.Total.StringFixed(2))
}

func TestCalculatePaySubsidyReducesSalaryBenefit(t *testing.T) {
	app := salaryApplication()
	app.PaySubsidies = []models.PaySubsidy{
		{
			StartDate:         date("2021-01-01"),
			EndDate:           date("2021-06-30"),
			PaySubsidyPercent: 70,
			WorkTimePercent:   decimal.NewFromInt(100),
		},
	}

	result, err := New().Calculate(app)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	// 2000 * 70% = 1400 subsidy, 600 left for the benefit
	assert.Equal(t, "1400.00", result.Rows[0].MonthlyPaySubsidy.StringFixed(2))
	assert.Equal(t, "600.00", result.Rows[0].MonthlyBenefit.StringFixed(2))
	assert.Equal(t, "3600.00", result.Total.StringFixed(2))
}

func TestCalculateOverlappingPaySubsidies(t *testing.T) {
	app := salaryApplication()
	app.PaySubsidies = []models.PaySubsidy{
		{
			StartDate:         date("2021-01-01"),
			EndDate:           date("2021-03-31"),
			PaySubsidyPercent: 30,
			WorkTimePercent:   decimal.NewFromInt(100),
		},
		{
			StartDate:         date("2021-03-01"),
			EndDate:           date("2021-06-30"),
			PaySubsidyPercent: 40,
			WorkTimePercent:   decimal.NewFromInt(100),
		},
	}

	result, err := New().Calculate(app)
	require.NoError(t, err)

	// Jan-Feb, March (both), Apr-Jun, total
	require.Len(t, result.Rows, 4)
	assert.Equal(t, "70", result.Rows[1].PaySubsidyPercent.String())
	assert.Equal(t, "2021-03-01", result.Rows[1].StartDate.Format(dateLayout))
	assert.Equal(t, "2021-03-31", result.Rows[1].EndDate.Format(dateLayout))
	assert.Equal(t, "1400.00", result.Rows[1].MonthlyPaySubsidy.StringFixed(2))
}

func TestCalculateDisabilityRaisesPaySubsidyLimit(t *testing.T) {
	disabled := true
	app := salaryApplication()
	app.Employee.MonthlyPay = dec("3000.00")
	app.PaySubsidies = []models.PaySubsidy{
		{
			StartDate:           date("2021-01-01"),
			EndDate:             date("2021-06-30"),
			PaySubsidyPercent:   100,
			WorkTimePercent:     decimal.NewFromInt(100),
			DisabilityOrIllness: &disabled,
		},
	}

	result, err := New().Calculate(app)
	require.NoError(t, err)
	assert.Equal(t, "1800.00", result.Rows[0].MonthlyPaySubsidy.StringFixed(2))
	assert.Equal(t, "800.00", result.Rows[0].MonthlyBenefit.StringFixed(2))
}

func TestCalculateEmploymentBenefitIsFlat(t *testing.T) {
	app := salaryApplication()
	app.BenefitType = models.BenefitTypeEmployment
	app.EndDate = datePtr("2021-01-15")

	result, err := New().Calculate(app)
	require.NoError(t, err)

	// 15 of 31 days
	assert.Equal(t, "0.48", result.Rows[0].Months.StringFixed(2))
	assert.Equal(t, "800.00", result.Rows[0].MonthlyBenefit.StringFixed(2))
	assert.Equal(t, "384.00", result.Total.StringFixed(2))
}

func TestCalculateIsDeterministic(t *testing.T) {
	app := salaryApplication()
	app.PaySubsidies = []models.PaySubsidy{
		{
			StartDate:         date("2021-03-15"),
			EndDate:           date("2021-05-20"),
			PaySubsidyPercent: 50,
			WorkTimePercent:   decimal.RequireFromString("80.5"),
		},
	}

	first, err := New().Calculate(app)
	require.NoError(t, err)
	second, err := New().Calculate(app)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(app *models.Application)
	}{
		{"missing monthly pay", func(app *models.Application) { app.Employee.MonthlyPay = nil }},
		{"missing employee", func(app *models.Application) { app.Employee = nil }},
		{"missing start date", func(app *models.Application) { app.StartDate = nil }},
		{"missing benefit type", func(app *models.Application) { app.BenefitType = "" }},
		{"end before start", func(app *models.Application) { app.EndDate = datePtr("2020-12-31") }},
		{"percent above range", func(app *models.Application) {
			app.PaySubsidies = []models.PaySubsidy{{
				StartDate: date("2021-01-01"), EndDate: date("2021-02-01"),
				PaySubsidyPercent: 150, WorkTimePercent: decimal.NewFromInt(100),
			}}
		}},
		{"negative work time", func(app *models.Application) {
			app.PaySubsidies = []models.PaySubsidy{{
				StartDate: date("2021-01-01"), EndDate: date("2021-02-01"),
				PaySubsidyPercent: 50, WorkTimePercent: decimal.NewFromInt(-10),
			}}
		}},
		{"subsidy ends before start", func(app *models.Application) {
			app.PaySubsidies = []models.PaySubsidy{{
				StartDate: date("2021-03-01"), EndDate: date("2021-02-01"),
				PaySubsidyPercent: 50, WorkTimePercent: decimal.NewFromInt(100),
			}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := salaryApplication()
			tt.modify(app)
			_, err := New().Calculate(app)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCalculation))
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		start, end string
		want       string
	}{
		{"2021-01-01", "2021-12-31", "12.00"},
		{"2021-06-01", "2021-06-15", "0.50"},
		{"2021-01-15", "2021-02-14", "1.00"},
		{"2021-02-01", "2021-02-28", "1.00"},
		{"2020-02-01", "2020-02-14", "0.48"},
	}
	for _, tt := range tests {
		got := monthsBetween(date(tt.start), date(tt.end))
		assert.Equal(t, tt.want, got.StringFixed(2), "%s - %s", tt.start, tt.end)
	}
}
