package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ApplicationHistory is one entry of the append-only change history.
type ApplicationHistory struct {
	BaseModel
	ApplicationID uuid.UUID         `json:"application_id" gorm:"type:uuid;not null;index"`
	ActorID       *uuid.UUID        `json:"actor_id" gorm:"type:uuid"`
	ActorRole     ActorRole         `json:"actor_role" gorm:"type:varchar(32);not null"`
	Action        string            `json:"action" gorm:"size:64;not null"`
	Changes       datatypes.JSONMap `json:"changes" gorm:"type:jsonb"`
}

func (ApplicationHistory) TableName() string { return "bf_applications_application_history" }
