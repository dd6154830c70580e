// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. Rows are hard deleted; collection replace
// semantics rely on removed rows actually disappearing.
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"modified_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Enums
type ApplicationStatus string

const (
	ApplicationStatusDraft                       ApplicationStatus = "draft"
	ApplicationStatusReceived                    ApplicationStatus = "received"
	ApplicationStatusHandling                    ApplicationStatus = "handling"
	ApplicationStatusAdditionalInformationNeeded ApplicationStatus = "additional_information_needed"
	ApplicationStatusCancelled                   ApplicationStatus = "cancelled"
	ApplicationStatusAccepted                    ApplicationStatus = "accepted"
	ApplicationStatusRejected                    ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every recognized status in declaration order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusDraft,
	ApplicationStatusReceived,
	ApplicationStatusHandling,
	ApplicationStatusAdditionalInformationNeeded,
	ApplicationStatusCancelled,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

func (s ApplicationStatus) IsValid() bool {
	for _, status := range ApplicationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type BenefitType string

const (
	BenefitTypeEmployment BenefitType = "employment_benefit"
	BenefitTypeSalary     BenefitType = "salary_benefit"
	BenefitTypeCommission BenefitType = "commission_benefit"
)

func (b BenefitType) IsValid() bool {
	switch b {
	case BenefitTypeEmployment, BenefitTypeSalary, BenefitTypeCommission:
		return true
	}
	return false
}

// OrganizationType is the coarse classification of the applicant organization.
type OrganizationType string

const (
	OrganizationTypeCompany     OrganizationType = "company"
	OrganizationTypeAssociation OrganizationType = "association"
)

// ResolveOrganizationType maps a company form code to an organization type.
// Company is the default.
func ResolveOrganizationType(companyFormCode int, associationFormCodes []int) OrganizationType {
	for _, code := range associationFormCodes {
		if code == companyFormCode {
			return OrganizationTypeAssociation
		}
	}
	return OrganizationTypeCompany
}

// ActorRole is the closed set of roles a caller can act in.
type ActorRole string

const (
	ActorRoleApplicant       ActorRole = "applicant"
	ActorRoleHandler         ActorRole = "handler"
	ActorRoleUnauthenticated ActorRole = "unauthenticated"
)

type Language string

const (
	LanguageFinnish Language = "fi"
	LanguageSwedish Language = "sv"
	LanguageEnglish Language = "en"
)

type ApplicationBatchStatus string

const (
	ApplicationBatchStatusDraft                ApplicationBatchStatus = "draft"
	ApplicationBatchStatusAhjoReportCreated    ApplicationBatchStatus = "exported_ahjo_report"
	ApplicationBatchStatusAwaitingAhjoDecision ApplicationBatchStatus = "awaiting_ahjo_decision"
	ApplicationBatchStatusDecidedAccepted      ApplicationBatchStatus = "accepted"
	ApplicationBatchStatusDecidedRejected      ApplicationBatchStatus = "rejected"
	ApplicationBatchStatusReturned             ApplicationBatchStatus = "returned"
	ApplicationBatchStatusSentToTalpa          ApplicationBatchStatus = "sent_to_talpa"
	ApplicationBatchStatusCompleted            ApplicationBatchStatus = "completed"
)

// AhjoDecision is the subset of batch statuses that represent a decision.
type AhjoDecision = ApplicationBatchStatus

const (
	AhjoDecisionAccepted AhjoDecision = ApplicationBatchStatusDecidedAccepted
	AhjoDecisionRejected AhjoDecision = ApplicationBatchStatusDecidedRejected
)

type CalculationRowType string

const (
	CalculationRowTypeSubPeriod CalculationRowType = "helsinki_benefit_sub_period"
	CalculationRowTypeTotal     CalculationRowType = "helsinki_benefit_total_eur"
)
