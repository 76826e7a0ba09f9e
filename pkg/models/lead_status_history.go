package models

import (
	"time"

	"github.com/google/uuid"
)

// LeadStatusHistory is one entry in the append-only status change log.
// FromStatus is nil only for the record written at lead creation.
// Rows are immutable once written and cascade-delete with their lead.
type LeadStatusHistory struct {
	ID         int64     `json:"id"`
	LeadID     uuid.UUID `json:"lead_id"`
	FromStatus *string   `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  uuid.UUID `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}
