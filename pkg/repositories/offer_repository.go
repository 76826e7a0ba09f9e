package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/database"
	"github.com/mrk-construction/crm-engine/pkg/models"
)

// OfferRepository defines the interface for offer data access.
type OfferRepository interface {
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*models.Offer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	Create(ctx context.Context, offer *models.Offer) error
	Update(ctx context.Context, offer *models.Offer) error
}

type offerRepository struct {
	db database.Querier
}

// NewOfferRepository creates a new offer repository.
func NewOfferRepository(db database.Querier) OfferRepository {
	return &offerRepository{db: db}
}

const offerColumns = `id, lead_id, file_path, amount_estimated, status, created_at, updated_at`

func (r *offerRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*models.Offer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+` FROM offers WHERE lead_id = $1 ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.LeadID, &o.FilePath, &o.AmountEstimated, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var o models.Offer
	err := r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id).
		Scan(&o.ID, &o.LeadID, &o.FilePath, &o.AmountEstimated, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: offer %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &o, nil
}

func (r *offerRepository) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	if offer.Status == "" {
		offer.Status = models.OfferDraft
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO offers (id, lead_id, file_path, amount_estimated, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		offer.ID, offer.LeadID, offer.FilePath, offer.AmountEstimated, offer.Status,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *offerRepository) Update(ctx context.Context, offer *models.Offer) error {
	result, err := r.db.Exec(ctx, `
		UPDATE offers SET file_path = $2, amount_estimated = $3, status = $4, updated_at = now()
		WHERE id = $1`,
		offer.ID, offer.FilePath, offer.AmountEstimated, offer.Status)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: offer %s", apperrors.ErrNotFound, offer.ID)
	}
	return nil
}
