package models

import (
	"time"
)

// CampaignMapping is one classification rule: campaign names containing
// ContainsText (case-insensitive) resolve to ProjectTypeKey. Rules are
// evaluated in ascending priority order, first match wins. Mappings are
// soft-deactivated rather than deleted to preserve the audit trail.
type CampaignMapping struct {
	ID             int64     `json:"id"`
	ContainsText   string    `json:"contains_text"`
	ProjectTypeKey string    `json:"project_type_key"`
	Priority       int       `json:"priority"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}
