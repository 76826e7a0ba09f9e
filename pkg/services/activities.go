package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/repositories"
)

// ActivityService defines the interface for lead activity logging.
type ActivityService interface {
	ListByLead(ctx context.Context, viewer *models.User, leadID uuid.UUID) ([]*models.Activity, error)
	Create(ctx context.Context, actor *models.User, leadID uuid.UUID, activityType string, notes *string) (*models.Activity, error)
}

type activityService struct {
	activityRepo repositories.ActivityRepository
	leads        LeadService
	logger       *zap.Logger
}

// NewActivityService creates a new activity service with dependencies.
func NewActivityService(activityRepo repositories.ActivityRepository, leads LeadService, logger *zap.Logger) ActivityService {
	return &activityService{
		activityRepo: activityRepo,
		leads:        leads,
		logger:       logger,
	}
}

func (s *activityService) ListByLead(ctx context.Context, viewer *models.User, leadID uuid.UUID) ([]*models.Activity, error) {
	// Visibility check rides on the lead lookup.
	if _, err := s.leads.Get(ctx, viewer, leadID); err != nil {
		return nil, err
	}
	return s.activityRepo.ListByLead(ctx, leadID)
}

func (s *activityService) Create(ctx context.Context, actor *models.User, leadID uuid.UUID, activityType string, notes *string) (*models.Activity, error) {
	if !models.IsValidActivityType(activityType) {
		return nil, fmt.Errorf("%w: unknown activity type %q", apperrors.ErrValidation, activityType)
	}
	if _, err := s.leads.Get(ctx, actor, leadID); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		LeadID:       leadID,
		UserID:       actor.ID,
		ActivityType: activityType,
		Notes:        notes,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	s.logger.Info("activity logged",
		zap.String("lead_id", leadID.String()),
		zap.String("type", activityType))
	return activity, nil
}
