package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/repositories"
)

// CampaignMappingService defines the interface for managing campaign
// classification rules.
type CampaignMappingService interface {
	List(ctx context.Context) ([]*models.CampaignMapping, error)
	Create(ctx context.Context, mapping *models.CampaignMapping) error
	Update(ctx context.Context, mapping *models.CampaignMapping) error
	Deactivate(ctx context.Context, id int64) error
	// Classify resolves a campaign name through the active rule set.
	Classify(ctx context.Context, campaignName string) (string, error)
}

type campaignMappingService struct {
	mappingRepo     repositories.CampaignMappingRepository
	projectTypeRepo repositories.ProjectTypeRepository
	logger          *zap.Logger
}

// NewCampaignMappingService creates a new campaign mapping service.
func NewCampaignMappingService(
	mappingRepo repositories.CampaignMappingRepository,
	projectTypeRepo repositories.ProjectTypeRepository,
	logger *zap.Logger,
) CampaignMappingService {
	return &campaignMappingService{
		mappingRepo:     mappingRepo,
		projectTypeRepo: projectTypeRepo,
		logger:          logger,
	}
}

func (s *campaignMappingService) List(ctx context.Context) ([]*models.CampaignMapping, error) {
	return s.mappingRepo.List(ctx)
}

func (s *campaignMappingService) Create(ctx context.Context, mapping *models.CampaignMapping) error {
	if err := s.validate(ctx, mapping); err != nil {
		return err
	}
	if err := s.mappingRepo.Create(ctx, mapping); err != nil {
		return err
	}
	s.logger.Info("campaign mapping created",
		zap.Int64("id", mapping.ID),
		zap.String("contains_text", mapping.ContainsText),
		zap.String("project_type_key", mapping.ProjectTypeKey))
	return nil
}

func (s *campaignMappingService) Update(ctx context.Context, mapping *models.CampaignMapping) error {
	if err := s.validate(ctx, mapping); err != nil {
		return err
	}
	return s.mappingRepo.Update(ctx, mapping)
}

func (s *campaignMappingService) Deactivate(ctx context.Context, id int64) error {
	return s.mappingRepo.Deactivate(ctx, id)
}

func (s *campaignMappingService) Classify(ctx context.Context, campaignName string) (string, error) {
	mappings, err := s.mappingRepo.ListActive(ctx)
	if err != nil {
		return "", err
	}
	return ClassifyCampaign(campaignName, mappings), nil
}

func (s *campaignMappingService) validate(ctx context.Context, mapping *models.CampaignMapping) error {
	if mapping.ContainsText == "" {
		return fmt.Errorf("%w: contains_text is required", apperrors.ErrValidation)
	}
	if _, err := s.projectTypeRepo.GetByKey(ctx, mapping.ProjectTypeKey); err != nil {
		return fmt.Errorf("%w: unknown project type key %q", apperrors.ErrValidation, mapping.ProjectTypeKey)
	}
	return nil
}
