package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/database"
	"github.com/mrk-construction/crm-engine/pkg/models"
)

// CampaignMappingRepository defines the interface for campaign
// classification rule data access. ListActive returns rules in
// classification order: lowest priority value first, oldest first on ties.
type CampaignMappingRepository interface {
	ListActive(ctx context.Context) ([]*models.CampaignMapping, error)
	List(ctx context.Context) ([]*models.CampaignMapping, error)
	GetByID(ctx context.Context, id int64) (*models.CampaignMapping, error)
	Create(ctx context.Context, mapping *models.CampaignMapping) error
	Update(ctx context.Context, mapping *models.CampaignMapping) error
	Deactivate(ctx context.Context, id int64) error
}

type campaignMappingRepository struct {
	db database.Querier
}

// NewCampaignMappingRepository creates a new campaign mapping repository.
func NewCampaignMappingRepository(db database.Querier) CampaignMappingRepository {
	return &campaignMappingRepository{db: db}
}

const mappingColumns = `id, contains_text, project_type_key, priority, is_active, created_at`

func (r *campaignMappingRepository) ListActive(ctx context.Context) ([]*models.CampaignMapping, error) {
	return r.list(ctx, `SELECT `+mappingColumns+` FROM campaign_mappings WHERE is_active ORDER BY priority ASC, created_at ASC`)
}

func (r *campaignMappingRepository) List(ctx context.Context) ([]*models.CampaignMapping, error) {
	return r.list(ctx, `SELECT `+mappingColumns+` FROM campaign_mappings ORDER BY priority ASC, created_at ASC`)
}

func (r *campaignMappingRepository) list(ctx context.Context, query string) ([]*models.CampaignMapping, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*models.CampaignMapping
	for rows.Next() {
		var m models.CampaignMapping
		if err := rows.Scan(&m.ID, &m.ContainsText, &m.ProjectTypeKey, &m.Priority, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign mapping: %w", err)
		}
		mappings = append(mappings, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read campaign mappings: %w", err)
	}
	return mappings, nil
}

func (r *campaignMappingRepository) GetByID(ctx context.Context, id int64) (*models.CampaignMapping, error) {
	var m models.CampaignMapping
	err := r.db.QueryRow(ctx, `SELECT `+mappingColumns+` FROM campaign_mappings WHERE id = $1`, id).
		Scan(&m.ID, &m.ContainsText, &m.ProjectTypeKey, &m.Priority, &m.IsActive, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: campaign mapping %d", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get campaign mapping: %w", err)
	}
	return &m, nil
}

func (r *campaignMappingRepository) Create(ctx context.Context, mapping *models.CampaignMapping) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO campaign_mappings (contains_text, project_type_key, priority, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		mapping.ContainsText, mapping.ProjectTypeKey, mapping.Priority, mapping.IsActive,
	).Scan(&mapping.ID, &mapping.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign mapping: %w", err)
	}
	return nil
}

func (r *campaignMappingRepository) Update(ctx context.Context, mapping *models.CampaignMapping) error {
	result, err := r.db.Exec(ctx, `
		UPDATE campaign_mappings SET contains_text = $2, project_type_key = $3, priority = $4, is_active = $5
		WHERE id = $1`,
		mapping.ID, mapping.ContainsText, mapping.ProjectTypeKey, mapping.Priority, mapping.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update campaign mapping: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: campaign mapping %d", apperrors.ErrNotFound, mapping.ID)
	}
	return nil
}

// Deactivate soft-disables a rule; classification history stays intact.
func (r *campaignMappingRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `UPDATE campaign_mappings SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate campaign mapping: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: campaign mapping %d", apperrors.ErrNotFound, id)
	}
	return nil
}
