package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead statuses. The list is the happy-path order, but transitions are not
// restricted to adjacent statuses; only role authorization limits them.
const (
	StatusNewLead          = "new_lead"
	StatusInitialCallDone  = "initial_call_done"
	StatusFitForMeeting    = "fit_for_meeting"
	StatusMeetingScheduled = "meeting_scheduled"
	StatusMeetingDone      = "meeting_done"
	StatusOfferSent        = "offer_sent"
	StatusNegotiation      = "negotiation"
	StatusWon              = "won"
	StatusLost             = "lost"
	StatusIrrelevant       = "irrelevant"
)

// LeadStatuses contains all valid lead status values in happy-path order.
var LeadStatuses = []string{
	StatusNewLead,
	StatusInitialCallDone,
	StatusFitForMeeting,
	StatusMeetingScheduled,
	StatusMeetingDone,
	StatusOfferSent,
	StatusNegotiation,
	StatusWon,
	StatusLost,
	StatusIrrelevant,
}

// IsValidStatus checks if the given status is a member of the fixed status set.
func IsValidStatus(status string) bool {
	for _, s := range LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Lead sources.
const (
	SourceMetaForm    = "meta_form"
	SourceLandingPage = "landing_page"
	SourceManual      = "manual"
)

// Lead temperatures.
const (
	TemperatureHot  = "hot"
	TemperatureWarm = "warm"
	TemperatureCold = "cold"
)

// Lead is the central entity: one prospective construction project.
// NormalizedPhone is always derivable from Phone via phone.Normalize and is
// recomputed whenever Phone changes. Leads are never hard-deleted.
type Lead struct {
	ID              uuid.UUID `json:"id"`
	ProjectTypeID   int16     `json:"project_type_id"`
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone"`
	NormalizedPhone string    `json:"normalized_phone"`
	Email           *string   `json:"email,omitempty"`
	Source          string    `json:"source"`
	CampaignName    *string   `json:"campaign_name,omitempty"`
	AdsetName       *string   `json:"adset_name,omitempty"`
	AdName          *string   `json:"ad_name,omitempty"`
	City            *string   `json:"city,omitempty"`
	Street          *string   `json:"street,omitempty"`
	Temperature     *string   `json:"temperature,omitempty"`
	Status          string    `json:"status"`

	QualifierID *uuid.UUID `json:"qualifier_id,omitempty"`
	CloserID    *uuid.UUID `json:"closer_id,omitempty"`

	// Conversational bot state.
	BotPayload   map[string]any `json:"bot_payload,omitempty"`
	BotTrack     *string        `json:"bot_track,omitempty"`
	BotCompleted bool           `json:"bot_completed"`

	// Common qualification fields, codes produced by leadmap.
	StartTimeline       *string `json:"start_timeline,omitempty"`
	PlansStatus         *string `json:"plans_status,omitempty"`
	PermitStatus        *string `json:"permit_status,omitempty"`
	BuildingType        *string `json:"building_type,omitempty"`
	SiteAccess          *string `json:"site_access,omitempty"`
	EstimatedSizeBucket *string `json:"estimated_size_bucket,omitempty"`
	IsOccupied          *string `json:"is_occupied,omitempty"`

	// Mamad track.
	MamadVariant *string `json:"mamad_variant,omitempty"`

	// Private home track.
	PrivateStage         *string  `json:"private_stage,omitempty"`
	PrivateSpecialStruct []string `json:"private_special_struct,omitempty"`

	// Architecture track.
	ArchService       *string  `json:"arch_service,omitempty"`
	ArchPropertyType  *string  `json:"arch_property_type,omitempty"`
	ArchPlanningStage *string  `json:"arch_planning_stage,omitempty"`
	ArchExistingDocs  []string `json:"arch_existing_docs,omitempty"`

	// Renovation track.
	RenoType    *string `json:"reno_type,omitempty"`
	RenoHasPlan *string `json:"reno_has_plan,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
