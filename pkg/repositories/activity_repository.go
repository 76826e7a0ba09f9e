package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mrk-construction/crm-engine/pkg/database"
	"github.com/mrk-construction/crm-engine/pkg/models"
)

// ActivityRepository defines the interface for lead activity data access.
type ActivityRepository interface {
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
}

type activityRepository struct {
	db database.Querier
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db database.Querier) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*models.Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, user_id, activity_type, notes, created_at
		FROM activities
		WHERE lead_id = $1
		ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.UserID, &a.ActivityType, &a.Notes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activities: %w", err)
	}
	return activities, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO activities (id, lead_id, user_id, activity_type, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		activity.ID, activity.LeadID, activity.UserID, activity.ActivityType, activity.Notes,
	).Scan(&activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}
