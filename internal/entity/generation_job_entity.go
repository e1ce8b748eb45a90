package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GenerationJobRecord is the persisted audit trail of a generation job.
// The in-memory orchestrator owns live state; this table is write-behind
// history for listing, retry lineage and post-mortem inspection.
type GenerationJobRecord struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId string    `gorm:"index"`
	UserId    string    `gorm:"index"`
	Kind      string
	Status    string         `gorm:"index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	Result    datatypes.JSON `gorm:"type:jsonb"`
	Error     string
	RetryOf   *uuid.UUID `gorm:"type:uuid"`
	RemoteId  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GenerationJobRecord) TableName() string {
	return "generation_jobs"
}
