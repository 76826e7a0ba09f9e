package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer statuses.
const (
	OfferDraft       = "draft"
	OfferSent        = "sent"
	OfferNegotiation = "negotiation"
	OfferApproved    = "approved"
	OfferRejected    = "rejected"
)

// ValidOfferStatuses contains all valid offer status values.
var ValidOfferStatuses = []string{OfferDraft, OfferSent, OfferNegotiation, OfferApproved, OfferRejected}

// IsValidOfferStatus checks if the given offer status is valid.
func IsValidOfferStatus(s string) bool {
	for _, v := range ValidOfferStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Offer is a priced PDF proposal attached to a lead. The file itself
// lives on disk under the configured storage path.
type Offer struct {
	ID              uuid.UUID `json:"id"`
	LeadID          uuid.UUID `json:"lead_id"`
	FilePath        *string   `json:"-"`
	AmountEstimated *float64  `json:"amount_estimated,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
