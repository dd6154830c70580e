package services

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
)

const (
	HistoryActionCreate = "create"
	HistoryActionUpdate = "update"
)

// HistorySink receives one entry per successful write.
type HistorySink interface {
	Record(ctx context.Context, entry *models.ApplicationHistory) error
}

type DBHistorySink struct {
	db *gorm.DB
}

func NewDBHistorySink(db *gorm.DB) *DBHistorySink {
	return &DBHistorySink{db: db}
}

func (s *DBHistorySink) Record(ctx context.Context, entry *models.ApplicationHistory) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record application history: %w", err)
	}
	return nil
}

// historyChanges summarizes an update for the history entry.
func historyChanges(req *UpdateApplicationRequest, from, to models.ApplicationStatus, recalculated bool) datatypes.JSONMap {
	var fields []string
	for _, key := range updateKeys {
		if key != "calculation" && req.Has(key) {
			fields = append(fields, key)
		}
	}
	sort.Strings(fields)

	changes := datatypes.JSONMap{
		"fields":       fields,
		"recalculated": recalculated,
	}
	if from != to {
		changes["status"] = map[string]interface{}{"from": string(from), "to": string(to)}
	}
	return changes
}

// updateKeys lists every key UpdateApplicationRequest understands.
var updateKeys = []string{
	"status",
	"company_name",
	"company_form",
	"official_company_street_address",
	"official_company_city",
	"official_company_postcode",
	"use_alternative_address",
	"alternative_company_street_address",
	"alternative_company_city",
	"alternative_company_postcode",
	"company_bank_account_number",
	"company_contact_person_phone_number",
	"company_contact_person_email",
	"association_has_business_activities",
	"applicant_language",
	"co_operation_negotiations",
	"co_operation_negotiations_description",
	"apprenticeship_program",
	"archived",
	"benefit_type",
	"start_date",
	"end_date",
	"de_minimis_aid",
	"de_minimis_aid_set",
	"pay_subsidies",
	"bases",
	"employee",
	"calculation",
}
