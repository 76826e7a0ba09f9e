package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity types.
const (
	ActivityCall      = "call"
	ActivityMeeting   = "meeting"
	ActivityNote      = "note"
	ActivityOfferSent = "offer_sent"
)

// ValidActivityTypes contains all valid activity type values.
var ValidActivityTypes = []string{ActivityCall, ActivityMeeting, ActivityNote, ActivityOfferSent}

// IsValidActivityType checks if the given activity type is valid.
func IsValidActivityType(t string) bool {
	for _, v := range ValidActivityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Activity is one timeline entry on a lead: a call, meeting or note
// recorded by a user. Append-only.
type Activity struct {
	ID           uuid.UUID `json:"id"`
	LeadID       uuid.UUID `json:"lead_id"`
	ActivityType string    `json:"type"`
	Notes        *string   `json:"description,omitempty"`
	UserID       uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}
