package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/phone"
	"github.com/mrk-construction/crm-engine/pkg/rbac"
	"github.com/mrk-construction/crm-engine/pkg/repositories"
)

// LeadListInput narrows the lead list. Pagination starts at page 1.
type LeadListInput struct {
	ProjectTypeID  *int16
	ProjectTypeKey string
	Status         *string
	Temperature    *string
	Source         *string
	BotCompleted   *bool
	AssigneeID     *uuid.UUID
	Search         string
	Page           int
	PageSize       int
}

// LeadPage is one page of leads plus the unpaginated total.
type LeadPage struct {
	Leads    []*models.Lead `json:"leads"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// LeadUpdateInput carries the manually editable lead fields. Nil means
// leave the current value.
type LeadUpdateInput struct {
	FullName      *string
	Phone         *string
	Email         *string
	City          *string
	Street        *string
	Temperature   *string
	ProjectTypeID *int16
	QualifierID   *uuid.UUID
	CloserID      *uuid.UUID
}

// LeadService defines the interface for lead operations. Every method
// takes the acting user so visibility and transition policy apply.
type LeadService interface {
	List(ctx context.Context, viewer *models.User, input LeadListInput) (*LeadPage, error)
	Get(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Lead, error)
	Create(ctx context.Context, actor *models.User, lead *models.Lead) error
	Update(ctx context.Context, actor *models.User, id uuid.UUID, input LeadUpdateInput) (*models.Lead, error)
	Transition(ctx context.Context, actor *models.User, id uuid.UUID, toStatus string) (*models.Lead, error)
	AssignCloser(ctx context.Context, actor *models.User, id, closerID uuid.UUID) (*models.Lead, error)
	History(ctx context.Context, viewer *models.User, id uuid.UUID) ([]*models.LeadStatusHistory, error)
}

type leadService struct {
	leadRepo        repositories.LeadRepository
	userRepo        repositories.UserRepository
	projectTypeRepo repositories.ProjectTypeRepository
	logger          *zap.Logger
}

// NewLeadService creates a new lead service with dependencies.
func NewLeadService(
	leadRepo repositories.LeadRepository,
	userRepo repositories.UserRepository,
	projectTypeRepo repositories.ProjectTypeRepository,
	logger *zap.Logger,
) LeadService {
	return &leadService{
		leadRepo:        leadRepo,
		userRepo:        userRepo,
		projectTypeRepo: projectTypeRepo,
		logger:          logger,
	}
}

func (s *leadService) List(ctx context.Context, viewer *models.User, input LeadListInput) (*LeadPage, error) {
	if input.Status != nil && !models.IsValidStatus(*input.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, *input.Status)
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	projectTypeID := input.ProjectTypeID
	if input.ProjectTypeKey != "" {
		pt, err := s.projectTypeRepo.GetByKey(ctx, input.ProjectTypeKey)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// An unknown key matches nothing.
				return &LeadPage{Leads: []*models.Lead{}, Page: page, PageSize: pageSize}, nil
			}
			return nil, err
		}
		projectTypeID = &pt.ID
	}

	filter := repositories.LeadFilter{
		ProjectTypeID: projectTypeID,
		Status:        input.Status,
		Temperature:   input.Temperature,
		Source:        input.Source,
		BotCompleted:  input.BotCompleted,
		AssigneeID:    input.AssigneeID,
		Search:        input.Search,
		ViewerRole:    viewer.Role,
		ViewerID:      viewer.ID,
		Page:          page,
		PageSize:      pageSize,
	}
	if input.Search != "" {
		// Phone searches match against the normalized form.
		filter.NormalizedSearch = phone.Normalize(input.Search)
	}

	leads, total, err := s.leadRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	return &LeadPage{
		Leads:    leads,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *leadService) Get(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rbac.CanViewLead(viewer, lead.Status, lead.QualifierID, lead.CloserID) {
		// Hidden leads look absent rather than forbidden.
		return nil, fmt.Errorf("%w: lead %s", apperrors.ErrNotFound, id)
	}
	return lead, nil
}

func (s *leadService) Create(ctx context.Context, actor *models.User, lead *models.Lead) error {
	if lead.FullName == "" {
		return fmt.Errorf("%w: full_name is required", apperrors.ErrValidation)
	}
	if lead.Phone == "" {
		return fmt.Errorf("%w: phone is required", apperrors.ErrValidation)
	}
	if lead.ProjectTypeID == 0 {
		return fmt.Errorf("%w: project_type_id is required", apperrors.ErrValidation)
	}

	lead.NormalizedPhone = phone.Normalize(lead.Phone)
	lead.Source = models.SourceManual
	lead.Status = models.StatusNewLead

	if err := s.leadRepo.CreateWithInitialHistory(ctx, lead, &actor.ID); err != nil {
		return err
	}

	s.logger.Info("lead created manually",
		zap.String("lead_id", lead.ID.String()),
		zap.String("created_by", actor.ID.String()))
	return nil
}

func (s *leadService) Update(ctx context.Context, actor *models.User, id uuid.UUID, input LeadUpdateInput) (*models.Lead, error) {
	lead, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, fmt.Errorf("%w: full_name cannot be empty", apperrors.ErrValidation)
		}
		lead.FullName = *input.FullName
	}
	if input.Phone != nil {
		if *input.Phone == "" {
			return nil, fmt.Errorf("%w: phone cannot be empty", apperrors.ErrValidation)
		}
		lead.Phone = *input.Phone
		lead.NormalizedPhone = phone.Normalize(*input.Phone)
	}
	if input.Email != nil {
		lead.Email = input.Email
	}
	if input.City != nil {
		lead.City = input.City
	}
	if input.Street != nil {
		lead.Street = input.Street
	}
	if input.Temperature != nil {
		lead.Temperature = input.Temperature
	}
	if input.ProjectTypeID != nil {
		lead.ProjectTypeID = *input.ProjectTypeID
	}
	if input.QualifierID != nil {
		lead.QualifierID = input.QualifierID
	}
	if input.CloserID != nil {
		// Closer assignment goes through AssignCloser so its role check
		// and qualifier claim apply; admins may still set it directly.
		if err := rbac.RequireAdmin(actor); err != nil {
			return nil, err
		}
		lead.CloserID = input.CloserID
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *leadService) Transition(ctx context.Context, actor *models.User, id uuid.UUID, toStatus string) (*models.Lead, error) {
	lead, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := rbac.CheckTransition(actor.Role, toStatus); err != nil {
		return nil, err
	}
	if lead.Status == toStatus {
		// No-op transitions write no history.
		return lead, nil
	}

	if err := s.leadRepo.Transition(ctx, id, lead.Status, toStatus, actor.ID); err != nil {
		return nil, err
	}

	s.logger.Info("lead status changed",
		zap.String("lead_id", id.String()),
		zap.String("from", lead.Status),
		zap.String("to", toStatus),
		zap.String("changed_by", actor.ID.String()))

	lead.Status = toStatus
	return lead, nil
}

// AssignCloser hands the lead to a closer. Qualifiers and admins may
// assign; the target must be an active closer-role user. When the lead
// has no qualifier yet, the assigning qualifier claims that slot.
func (s *leadService) AssignCloser(ctx context.Context, actor *models.User, id, closerID uuid.UUID) (*models.Lead, error) {
	if err := rbac.RequireRole(actor, models.RoleAdmin, models.RoleQualifier); err != nil {
		return nil, err
	}

	lead, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	closer, err := s.userRepo.GetByID(ctx, closerID)
	if err != nil {
		return nil, err
	}
	if closer.Role != models.RoleCloser || !closer.IsActive {
		return nil, fmt.Errorf("%w: user %s is not an active closer", apperrors.ErrValidation, closerID)
	}

	lead.CloserID = &closer.ID
	if lead.QualifierID == nil && actor.Role == models.RoleQualifier {
		lead.QualifierID = &actor.ID
	}
	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.Info("closer assigned",
		zap.String("lead_id", id.String()),
		zap.String("closer_id", closerID.String()),
		zap.String("assigned_by", actor.ID.String()))
	return lead, nil
}

func (s *leadService) History(ctx context.Context, viewer *models.User, id uuid.UUID) ([]*models.LeadStatusHistory, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return nil, err
	}
	return s.leadRepo.ListHistory(ctx, id)
}
