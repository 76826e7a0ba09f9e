package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/leadmap"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/phone"
	"github.com/mrk-construction/crm-engine/pkg/repositories"
)

// fallbackRenovationID is used when the project_types seed rows are missing.
const fallbackRenovationID int16 = 3

// Default display names for leads arriving without one.
const (
	defaultMetaLeadName = "ליד מטא"
	defaultBotLeadName  = "ליד בוט"
)

// AdFormInput carries one ad platform form submission.
type AdFormInput struct {
	FullName     string
	Phone        string
	Email        string
	CampaignName string
	AdsetName    string
	AdName       string
}

// BotInput carries one conversational bot session result. Payload is the
// raw body kept for audit; Answers holds the question responses (falls
// back to Payload when the bot sends a flat body).
type BotInput struct {
	Phone     string
	FullName  string
	Track     string
	Answers   map[string]any
	Payload   map[string]any
	Completed bool
}

// IntakeResult reports whether intake created a new lead or updated an
// existing one within the dedup window.
type IntakeResult struct {
	Lead    *models.Lead
	Created bool
}

// IntakeService processes inbound webhook submissions into leads.
type IntakeService interface {
	ProcessAdForm(ctx context.Context, input AdFormInput) (*IntakeResult, error)
	ProcessBot(ctx context.Context, input BotInput) (*IntakeResult, error)
}

type intakeService struct {
	leadRepo        repositories.LeadRepository
	mappingRepo     repositories.CampaignMappingRepository
	projectTypeRepo repositories.ProjectTypeRepository
	dedupWindow     time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

// NewIntakeService creates a new intake service with dependencies.
func NewIntakeService(
	leadRepo repositories.LeadRepository,
	mappingRepo repositories.CampaignMappingRepository,
	projectTypeRepo repositories.ProjectTypeRepository,
	dedupWindow time.Duration,
	logger *zap.Logger,
) IntakeService {
	return &intakeService{
		leadRepo:        leadRepo,
		mappingRepo:     mappingRepo,
		projectTypeRepo: projectTypeRepo,
		dedupWindow:     dedupWindow,
		logger:          logger,
		now:             time.Now,
	}
}

// ClassifyCampaign resolves a campaign name to a project track key via
// substring rules. Rules must already be sorted by ascending priority;
// the first match wins. Empty names and unmatched names classify to the
// default track.
func ClassifyCampaign(campaignName string, mappings []*models.CampaignMapping) string {
	if campaignName == "" {
		return models.DefaultTrack
	}
	lower := strings.ToLower(campaignName)
	for _, m := range mappings {
		if strings.Contains(lower, strings.ToLower(m.ContainsText)) {
			return m.ProjectTypeKey
		}
	}
	return models.DefaultTrack
}

func (s *intakeService) ProcessAdForm(ctx context.Context, input AdFormInput) (*IntakeResult, error) {
	if input.Phone == "" {
		return nil, fmt.Errorf("%w: phone is required", apperrors.ErrValidation)
	}

	normalized := phone.Normalize(input.Phone)

	mappings, err := s.mappingRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	trackKey := ClassifyCampaign(input.CampaignName, mappings)
	projectTypeID, err := s.resolveProjectTypeID(ctx, trackKey)
	if err != nil {
		return nil, err
	}

	// The lookup and insert are separate statements: two concurrent
	// submissions for the same phone can both miss and create duplicates.
	// Accepted; duplicates get merged by hand.
	since := s.now().Add(-s.dedupWindow)
	existing, err := s.leadRepo.FindRecentByPhoneAndType(ctx, normalized, projectTypeID, since)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Merge attribution fields, never overwrite with empty values.
		if input.CampaignName != "" {
			existing.CampaignName = &input.CampaignName
		}
		if input.AdsetName != "" {
			existing.AdsetName = &input.AdsetName
		}
		if input.AdName != "" {
			existing.AdName = &input.AdName
		}
		if input.Email != "" {
			existing.Email = &input.Email
		}
		if err := s.leadRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("ad form merged into existing lead",
			zap.String("lead_id", existing.ID.String()),
			zap.String("track", trackKey))
		return &IntakeResult{Lead: existing}, nil
	}

	fullName := input.FullName
	if fullName == "" {
		fullName = defaultMetaLeadName
	}

	lead := &models.Lead{
		ProjectTypeID:   projectTypeID,
		FullName:        fullName,
		Phone:           input.Phone,
		NormalizedPhone: normalized,
		Email:           optional(input.Email),
		Source:          models.SourceMetaForm,
		CampaignName:    optional(input.CampaignName),
		AdsetName:       optional(input.AdsetName),
		AdName:          optional(input.AdName),
		Status:          models.StatusNewLead,
	}
	if err := s.leadRepo.CreateWithInitialHistory(ctx, lead, nil); err != nil {
		return nil, err
	}

	s.logger.Info("ad form created lead",
		zap.String("lead_id", lead.ID.String()),
		zap.String("track", trackKey))
	return &IntakeResult{Lead: lead, Created: true}, nil
}

func (s *intakeService) ProcessBot(ctx context.Context, input BotInput) (*IntakeResult, error) {
	if input.Phone == "" {
		return nil, fmt.Errorf("%w: phone is required", apperrors.ErrValidation)
	}

	normalized := phone.Normalize(input.Phone)
	track := leadmap.ResolveTrack(input.Track)

	since := s.now().Add(-s.dedupWindow)
	lead, err := s.leadRepo.FindRecentByPhone(ctx, normalized, since)
	if err != nil {
		return nil, err
	}
	created := lead == nil

	if created {
		trackKey := track
		if trackKey == "" {
			trackKey = models.DefaultTrack
		}
		projectTypeID, err := s.resolveProjectTypeID(ctx, trackKey)
		if err != nil {
			return nil, err
		}

		fullName := input.FullName
		if fullName == "" {
			fullName = defaultBotLeadName
		}
		lead = &models.Lead{
			ProjectTypeID:   projectTypeID,
			FullName:        fullName,
			Phone:           input.Phone,
			NormalizedPhone: normalized,
			Source:          models.SourceManual,
			Status:          models.StatusNewLead,
		}
	}

	lead.BotPayload = input.Payload

	answers := input.Answers
	if answers == nil {
		answers = input.Payload
	}
	// Unknown tracks still map the common fields, tagged with the bot's
	// literal track name.
	mapTrack := track
	if mapTrack == "" {
		mapTrack = strings.TrimSpace(input.Track)
	}
	if mapTrack != "" {
		mapped := leadmap.MapPayload(mapTrack, answers)
		applyMappedFields(lead, &mapped)
	}

	// A session with a resolved track and any answers counts as completed
	// even without an explicit flag.
	if input.Completed || (track != "" && len(answers) > 0) {
		lead.BotCompleted = true
	}

	if created {
		if err := s.leadRepo.CreateWithInitialHistory(ctx, lead, nil); err != nil {
			return nil, err
		}
	} else {
		if err := s.leadRepo.Update(ctx, lead); err != nil {
			return nil, err
		}
	}

	s.logger.Info("bot session processed",
		zap.String("lead_id", lead.ID.String()),
		zap.String("track", track),
		zap.Bool("created", created),
		zap.Bool("completed", lead.BotCompleted))
	return &IntakeResult{Lead: lead, Created: created}, nil
}

// resolveProjectTypeID maps a track key to its row id, falling back to
// the renovation track when the key has no row. Only a missing row
// triggers the fallback; store failures abort the unit of work.
func (s *intakeService) resolveProjectTypeID(ctx context.Context, key string) (int16, error) {
	pt, err := s.projectTypeRepo.GetByKey(ctx, key)
	if err == nil {
		return pt.ID, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, err
	}
	pt, err = s.projectTypeRepo.GetByKey(ctx, models.TrackRenovation)
	if err == nil {
		return pt.ID, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, err
	}
	return fallbackRenovationID, nil
}

// applyMappedFields copies every populated mapped field onto the lead.
// Nil fields leave existing values alone.
func applyMappedFields(lead *models.Lead, mapped *leadmap.MappedFields) {
	if mapped.BotTrack != "" {
		lead.BotTrack = &mapped.BotTrack
	}
	if mapped.FullName != nil && *mapped.FullName != "" {
		lead.FullName = *mapped.FullName
	}
	if mapped.City != nil {
		lead.City = mapped.City
	}
	if mapped.Street != nil {
		lead.Street = mapped.Street
	}
	if mapped.StartTimeline != nil {
		lead.StartTimeline = mapped.StartTimeline
	}
	if mapped.PlansStatus != nil {
		lead.PlansStatus = mapped.PlansStatus
	}
	if mapped.PermitStatus != nil {
		lead.PermitStatus = mapped.PermitStatus
	}
	if mapped.BuildingType != nil {
		lead.BuildingType = mapped.BuildingType
	}
	if mapped.SiteAccess != nil {
		lead.SiteAccess = mapped.SiteAccess
	}
	if mapped.EstimatedSizeBucket != nil {
		lead.EstimatedSizeBucket = mapped.EstimatedSizeBucket
	}
	if mapped.IsOccupied != nil {
		lead.IsOccupied = mapped.IsOccupied
	}
	if mapped.MamadVariant != nil {
		lead.MamadVariant = mapped.MamadVariant
	}
	if mapped.PrivateStage != nil {
		lead.PrivateStage = mapped.PrivateStage
	}
	if mapped.PrivateSpecialStruct != nil {
		lead.PrivateSpecialStruct = mapped.PrivateSpecialStruct
	}
	if mapped.ArchService != nil {
		lead.ArchService = mapped.ArchService
	}
	if mapped.ArchPropertyType != nil {
		lead.ArchPropertyType = mapped.ArchPropertyType
	}
	if mapped.ArchPlanningStage != nil {
		lead.ArchPlanningStage = mapped.ArchPlanningStage
	}
	if mapped.ArchExistingDocs != nil {
		lead.ArchExistingDocs = mapped.ArchExistingDocs
	}
	if mapped.RenoType != nil {
		lead.RenoType = mapped.RenoType
	}
	if mapped.RenoHasPlan != nil {
		lead.RenoHasPlan = mapped.RenoHasPlan
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
