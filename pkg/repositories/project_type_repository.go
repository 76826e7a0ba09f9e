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

// ProjectTypeRepository defines the interface for project track lookups.
type ProjectTypeRepository interface {
	List(ctx context.Context) ([]*models.ProjectType, error)
	GetByKey(ctx context.Context, key string) (*models.ProjectType, error)
}

type projectTypeRepository struct {
	db database.Querier
}

// NewProjectTypeRepository creates a new project type repository.
func NewProjectTypeRepository(db database.Querier) ProjectTypeRepository {
	return &projectTypeRepository{db: db}
}

func (r *projectTypeRepository) List(ctx context.Context) ([]*models.ProjectType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, key, display_name_he, is_active FROM project_types ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list project types: %w", err)
	}
	defer rows.Close()

	var types []*models.ProjectType
	for rows.Next() {
		var t models.ProjectType
		if err := rows.Scan(&t.ID, &t.Key, &t.DisplayNameHe, &t.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan project type: %w", err)
		}
		types = append(types, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project types: %w", err)
	}
	return types, nil
}

func (r *projectTypeRepository) GetByKey(ctx context.Context, key string) (*models.ProjectType, error) {
	var t models.ProjectType
	err := r.db.QueryRow(ctx, `SELECT id, key, display_name_he, is_active FROM project_types WHERE key = $1`, key).
		Scan(&t.ID, &t.Key, &t.DisplayNameHe, &t.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: project type %q", apperrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to get project type: %w", err)
	}
	return &t, nil
}
