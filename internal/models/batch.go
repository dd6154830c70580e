package models

import (
	"github.com/lib/pq"
)

// ApplicationBatch groups decided applications exported together to the
// decision system.
type ApplicationBatch struct {
	BaseModel
	Status       ApplicationBatchStatus `json:"status" gorm:"type:varchar(64);not null;default:'draft';index"`
	ExportedKeys pq.StringArray         `json:"exported_keys" gorm:"type:text[]"`

	Applications []Application `json:"applications,omitempty" gorm:"foreignKey:BatchID"`
}

func (ApplicationBatch) TableName() string { return "bf_applications_applicationbatch" }
