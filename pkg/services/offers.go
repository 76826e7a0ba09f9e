package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/repositories"
)

// OfferService defines the interface for price offer operations,
// including PDF document storage on local disk.
type OfferService interface {
	ListByLead(ctx context.Context, viewer *models.User, leadID uuid.UUID) ([]*models.Offer, error)
	Create(ctx context.Context, actor *models.User, leadID uuid.UUID, amountEstimated *float64) (*models.Offer, error)
	UpdateStatus(ctx context.Context, actor *models.User, offerID uuid.UUID, status string) (*models.Offer, error)
	AttachDocument(ctx context.Context, actor *models.User, offerID uuid.UUID, filename string, content io.Reader) (*models.Offer, error)
	// OpenDocument returns the stored PDF for streaming. The caller closes it.
	OpenDocument(ctx context.Context, viewer *models.User, offerID uuid.UUID) (io.ReadCloser, error)
}

type offerService struct {
	offerRepo   repositories.OfferRepository
	leads       LeadService
	storagePath string
	logger      *zap.Logger
}

// NewOfferService creates a new offer service with dependencies.
// storagePath is the local directory holding offer documents.
func NewOfferService(offerRepo repositories.OfferRepository, leads LeadService, storagePath string, logger *zap.Logger) OfferService {
	return &offerService{
		offerRepo:   offerRepo,
		leads:       leads,
		storagePath: storagePath,
		logger:      logger,
	}
}

func (s *offerService) ListByLead(ctx context.Context, viewer *models.User, leadID uuid.UUID) ([]*models.Offer, error) {
	if _, err := s.leads.Get(ctx, viewer, leadID); err != nil {
		return nil, err
	}
	return s.offerRepo.ListByLead(ctx, leadID)
}

func (s *offerService) Create(ctx context.Context, actor *models.User, leadID uuid.UUID, amountEstimated *float64) (*models.Offer, error) {
	if _, err := s.leads.Get(ctx, actor, leadID); err != nil {
		return nil, err
	}

	offer := &models.Offer{
		LeadID:          leadID,
		AmountEstimated: amountEstimated,
		Status:          models.OfferDraft,
	}
	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *offerService) UpdateStatus(ctx context.Context, actor *models.User, offerID uuid.UUID, status string) (*models.Offer, error) {
	if !models.IsValidOfferStatus(status) {
		return nil, fmt.Errorf("%w: unknown offer status %q", apperrors.ErrValidation, status)
	}

	offer, err := s.getVisible(ctx, actor, offerID)
	if err != nil {
		return nil, err
	}

	offer.Status = status
	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *offerService) AttachDocument(ctx context.Context, actor *models.User, offerID uuid.UUID, filename string, content io.Reader) (*models.Offer, error) {
	if filepath.Ext(filename) != ".pdf" {
		return nil, fmt.Errorf("%w: only PDF documents are accepted", apperrors.ErrValidation)
	}

	offer, err := s.getVisible(ctx, actor, offerID)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.storagePath, "offers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	// The stored name is the offer id, so re-uploads replace the document.
	path := filepath.Join(dir, offer.ID.String()+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer document: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return nil, fmt.Errorf("failed to write offer document: %w", err)
	}

	offer.FilePath = &path
	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, err
	}

	s.logger.Info("offer document stored",
		zap.String("offer_id", offer.ID.String()),
		zap.String("path", path))
	return offer, nil
}

func (s *offerService) OpenDocument(ctx context.Context, viewer *models.User, offerID uuid.UUID) (io.ReadCloser, error) {
	offer, err := s.getVisible(ctx, viewer, offerID)
	if err != nil {
		return nil, err
	}
	if offer.FilePath == nil {
		return nil, fmt.Errorf("%w: offer %s has no document", apperrors.ErrNotFound, offerID)
	}

	f, err := os.Open(*offer.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: offer document missing from storage", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open offer document: %w", err)
	}
	return f, nil
}

// getVisible loads the offer and checks the viewer can see its lead.
func (s *offerService) getVisible(ctx context.Context, viewer *models.User, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.leads.Get(ctx, viewer, offer.LeadID); err != nil {
		return nil, err
	}
	return offer, nil
}
