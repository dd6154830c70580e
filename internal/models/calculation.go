// internal/models/calculation.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculation is derived from the application and recomputed in place. It is
// never written directly through the API.
type Calculation struct {
	BaseModel
	ApplicationID           uuid.UUID        `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	MonthlyPay              decimal.Decimal  `json:"monthly_pay" gorm:"type:decimal(7,2);not null"`
	VacationMoney           decimal.Decimal  `json:"vacation_money" gorm:"type:decimal(7,2);not null"`
	OtherExpenses           decimal.Decimal  `json:"other_expenses" gorm:"type:decimal(7,2);not null"`
	StartDate               *time.Time       `json:"start_date" gorm:"type:date"`
	EndDate                 *time.Time       `json:"end_date" gorm:"type:date"`
	BenefitType             BenefitType      `json:"benefit_type" gorm:"type:varchar(64)"`
	CalculatedBenefitAmount decimal.Decimal  `json:"calculated_benefit_amount" gorm:"type:decimal(9,2);not null"`
	Rows                    []CalculationRow `json:"rows" gorm:"foreignKey:CalculationID;constraint:OnDelete:CASCADE"`
}

func (Calculation) TableName() string { return "bf_calculator_calculation" }

func (c *Calculation) Clone() *Calculation {
	cc := *c
	cc.StartDate = cloneTime(c.StartDate)
	cc.EndDate = cloneTime(c.EndDate)
	if c.Rows != nil {
		cc.Rows = make([]CalculationRow, len(c.Rows))
		for i := range c.Rows {
			cc.Rows[i] = c.Rows[i]
			cc.Rows[i].StartDate = cloneTime(c.Rows[i].StartDate)
			cc.Rows[i].EndDate = cloneTime(c.Rows[i].EndDate)
		}
	}
	return &cc
}

type CalculationRow struct {
	BaseModel
	CalculationID     uuid.UUID          `json:"calculation_id" gorm:"type:uuid;not null;index"`
	Ordering          int                `json:"ordering" gorm:"not null"`
	RowType           CalculationRowType `json:"row_type" gorm:"type:varchar(64);not null"`
	Description       string             `json:"description" gorm:"size:256"`
	StartDate         *time.Time         `json:"start_date" gorm:"type:date"`
	EndDate           *time.Time         `json:"end_date" gorm:"type:date"`
	Months            decimal.Decimal    `json:"months" gorm:"type:decimal(6,2);not null"`
	PaySubsidyPercent decimal.Decimal    `json:"pay_subsidy_percent" gorm:"type:decimal(5,2);not null"`
	MonthlyPaySubsidy decimal.Decimal    `json:"monthly_pay_subsidy" gorm:"type:decimal(9,2);not null"`
	MonthlyBenefit    decimal.Decimal    `json:"monthly_benefit" gorm:"type:decimal(9,2);not null"`
	Amount            decimal.Decimal    `json:"amount" gorm:"type:decimal(9,2);not null"`
}

func (CalculationRow) TableName() string { return "bf_calculator_calculationrow" }

// PaySubsidy is a pay subsidy granted for (part of) the benefit period.
type PaySubsidy struct {
	BaseModel
	ApplicationID       uuid.UUID       `json:"application_id" gorm:"type:uuid;not null;index"`
	StartDate           time.Time       `json:"start_date" gorm:"type:date;not null"`
	EndDate             time.Time       `json:"end_date" gorm:"type:date;not null"`
	PaySubsidyPercent   int             `json:"pay_subsidy_percent" gorm:"not null"`
	WorkTimePercent     decimal.Decimal `json:"work_time_percent" gorm:"type:decimal(5,2);not null"`
	DisabilityOrIllness *bool           `json:"disability_or_illness"`
	Ordering            int             `json:"ordering" gorm:"not null;default:0"`
}

func (PaySubsidy) TableName() string { return "bf_calculator_paysubsidy" }

// SameContent reports whether two pay subsidies carry the same values,
// ignoring identity and ordering.
func (p PaySubsidy) SameContent(other PaySubsidy) bool {
	sameDisability := (p.DisabilityOrIllness == nil && other.DisabilityOrIllness == nil) ||
		(p.DisabilityOrIllness != nil && other.DisabilityOrIllness != nil &&
			*p.DisabilityOrIllness == *other.DisabilityOrIllness)
	return p.StartDate.Equal(other.StartDate) &&
		p.EndDate.Equal(other.EndDate) &&
		p.PaySubsidyPercent == other.PaySubsidyPercent &&
		p.WorkTimePercent.Equal(other.WorkTimePercent) &&
		sameDisability
}
