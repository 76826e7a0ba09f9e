package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/database"
	"github.com/mrk-construction/crm-engine/pkg/models"
)

// LeadFilter narrows and paginates lead list queries. Role/ViewerID apply
// the visibility policy in SQL so pagination counts stay correct.
type LeadFilter struct {
	ProjectTypeID *int16
	Status        *string
	Temperature   *string
	Source        *string
	BotCompleted  *bool
	AssigneeID    *uuid.UUID
	Search string
	// NormalizedSearch is the search term run through phone normalization,
	// matched against normalized_phone.
	NormalizedSearch string

	ViewerRole string
	ViewerID   uuid.UUID

	Page     int
	PageSize int
}

// LeadRepository defines the interface for lead data access, including
// the dedup lookups and the transactional status transitions.
type LeadRepository interface {
	// CreateWithInitialHistory inserts a lead and its creation history
	// record (from_status null) in one transaction. A nil changedBy means
	// system-created; the lead's own id is recorded as the actor.
	CreateWithInitialHistory(ctx context.Context, lead *models.Lead, changedBy *uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) error
	List(ctx context.Context, filter LeadFilter) ([]*models.Lead, int, error)

	// FindRecentByPhone returns the most recent lead with the normalized
	// phone created at or after since, or nil when none matches.
	FindRecentByPhone(ctx context.Context, normalizedPhone string, since time.Time) (*models.Lead, error)
	// FindRecentByPhoneAndType additionally constrains the project track.
	FindRecentByPhoneAndType(ctx context.Context, normalizedPhone string, projectTypeID int16, since time.Time) (*models.Lead, error)

	// Transition updates the lead status and appends exactly one history
	// record in the same transaction.
	Transition(ctx context.Context, leadID uuid.UUID, fromStatus, toStatus string, changedBy uuid.UUID) error
	ListHistory(ctx context.Context, leadID uuid.UUID) ([]*models.LeadStatusHistory, error)
}

// leadRepository implements LeadRepository using PostgreSQL.
type leadRepository struct {
	db database.Querier
}

// NewLeadRepository creates a new lead repository.
func NewLeadRepository(db database.Querier) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, project_type_id, full_name, phone, normalized_phone, email, source,
	campaign_name, adset_name, ad_name, city, street, temperature, status,
	qualifier_id, closer_id, bot_payload, bot_track, bot_completed,
	start_timeline, plans_status, permit_status, building_type, site_access,
	estimated_size_bucket, is_occupied, mamad_variant, private_stage,
	private_special_struct, arch_service, arch_property_type,
	arch_planning_stage, arch_existing_docs, reno_type, reno_has_plan,
	created_at, updated_at`

// deterministic tie-break: equal created_at resolves by id so concurrent
// dedup lookups always pick the same lead.
const recentLeadOrder = ` ORDER BY created_at DESC, id DESC LIMIT 1`

func (r *leadRepository) CreateWithInitialHistory(ctx context.Context, lead *models.Lead, changedBy *uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Status == "" {
		lead.Status = models.StatusNewLead
	}

	botPayload, specialStruct, existingDocs, err := marshalLeadJSON(lead)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (id, project_type_id, full_name, phone, normalized_phone, email, source,
			campaign_name, adset_name, ad_name, city, street, temperature, status,
			qualifier_id, closer_id, bot_payload, bot_track, bot_completed,
			start_timeline, plans_status, permit_status, building_type, site_access,
			estimated_size_bucket, is_occupied, mamad_variant, private_stage,
			private_special_struct, arch_service, arch_property_type,
			arch_planning_stage, arch_existing_docs, reno_type, reno_has_plan)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35)
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		lead.ID, lead.ProjectTypeID, lead.FullName, lead.Phone, lead.NormalizedPhone,
		lead.Email, lead.Source, lead.CampaignName, lead.AdsetName, lead.AdName,
		lead.City, lead.Street, lead.Temperature, lead.Status,
		lead.QualifierID, lead.CloserID, botPayload, lead.BotTrack, lead.BotCompleted,
		lead.StartTimeline, lead.PlansStatus, lead.PermitStatus, lead.BuildingType,
		lead.SiteAccess, lead.EstimatedSizeBucket, lead.IsOccupied, lead.MamadVariant,
		lead.PrivateStage, specialStruct, lead.ArchService, lead.ArchPropertyType,
		lead.ArchPlanningStage, existingDocs, lead.RenoType, lead.RenoHasPlan,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	actor := lead.ID // system-created records point at the lead itself
	if changedBy != nil {
		actor = *changedBy
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, from_status, to_status, changed_by)
		VALUES ($1, NULL, $2, $3)`,
		lead.ID, lead.Status, actor)
	if err != nil {
		return fmt.Errorf("failed to insert initial status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit lead creation: %w", err)
	}
	return nil
}

func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: lead %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

func (r *leadRepository) Update(ctx context.Context, lead *models.Lead) error {
	botPayload, specialStruct, existingDocs, err := marshalLeadJSON(lead)
	if err != nil {
		return err
	}

	query := `
		UPDATE leads SET
			project_type_id = $2, full_name = $3, phone = $4, normalized_phone = $5,
			email = $6, source = $7, campaign_name = $8, adset_name = $9, ad_name = $10,
			city = $11, street = $12, temperature = $13,
			qualifier_id = $14, closer_id = $15, bot_payload = $16, bot_track = $17,
			bot_completed = $18, start_timeline = $19, plans_status = $20,
			permit_status = $21, building_type = $22, site_access = $23,
			estimated_size_bucket = $24, is_occupied = $25, mamad_variant = $26,
			private_stage = $27, private_special_struct = $28, arch_service = $29,
			arch_property_type = $30, arch_planning_stage = $31, arch_existing_docs = $32,
			reno_type = $33, reno_has_plan = $34, updated_at = now()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		lead.ID, lead.ProjectTypeID, lead.FullName, lead.Phone, lead.NormalizedPhone,
		lead.Email, lead.Source, lead.CampaignName, lead.AdsetName, lead.AdName,
		lead.City, lead.Street, lead.Temperature,
		lead.QualifierID, lead.CloserID, botPayload, lead.BotTrack, lead.BotCompleted,
		lead.StartTimeline, lead.PlansStatus, lead.PermitStatus, lead.BuildingType,
		lead.SiteAccess, lead.EstimatedSizeBucket, lead.IsOccupied, lead.MamadVariant,
		lead.PrivateStage, specialStruct, lead.ArchService, lead.ArchPropertyType,
		lead.ArchPlanningStage, existingDocs, lead.RenoType, lead.RenoHasPlan,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: lead %s", apperrors.ErrNotFound, lead.ID)
	}
	return nil
}

func (r *leadRepository) List(ctx context.Context, filter LeadFilter) ([]*models.Lead, int, error) {
	where, args := buildLeadFilter(filter)

	var total int
	countQuery := `SELECT count(*) FROM leads` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where +
		fmt.Sprintf(` ORDER BY created_at DESC OFFSET %d LIMIT %d`, (page-1)*pageSize, pageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read leads: %w", err)
	}
	return leads, total, nil
}

func (r *leadRepository) FindRecentByPhone(ctx context.Context, normalizedPhone string, since time.Time) (*models.Lead, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE normalized_phone = $1 AND created_at >= $2`+recentLeadOrder,
		normalizedPhone, since)
	return r.scanRecent(row)
}

func (r *leadRepository) FindRecentByPhoneAndType(ctx context.Context, normalizedPhone string, projectTypeID int16, since time.Time) (*models.Lead, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE normalized_phone = $1 AND project_type_id = $2 AND created_at >= $3`+recentLeadOrder,
		normalizedPhone, projectTypeID, since)
	return r.scanRecent(row)
}

func (r *leadRepository) scanRecent(row pgx.Row) (*models.Lead, error) {
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recent lead: %w", err)
	}
	return lead, nil
}

func (r *leadRepository) Transition(ctx context.Context, leadID uuid.UUID, fromStatus, toStatus string, changedBy uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx,
		`UPDATE leads SET status = $2, updated_at = now() WHERE id = $1`,
		leadID, toStatus)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: lead %s", apperrors.ErrNotFound, leadID)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, from_status, to_status, changed_by)
		VALUES ($1, $2, $3, $4)`,
		leadID, fromStatus, toStatus, changedBy)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

func (r *leadRepository) ListHistory(ctx context.Context, leadID uuid.UUID) ([]*models.LeadStatusHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, from_status, to_status, changed_by, changed_at
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY changed_at DESC, id DESC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeadStatusHistory
	for rows.Next() {
		var e models.LeadStatusHistory
		if err := rows.Scan(&e.ID, &e.LeadID, &e.FromStatus, &e.ToStatus, &e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}
	return entries, nil
}

// buildLeadFilter renders the WHERE clause shared by the count and page
// queries. The visibility policy (rbac.CanViewLead) is mirrored here as
// SQL so filtering happens before pagination.
func buildLeadFilter(filter LeadFilter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ProjectTypeID != nil {
		conds = append(conds, "project_type_id = "+arg(*filter.ProjectTypeID))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(*filter.Status))
	}
	if filter.Temperature != nil {
		conds = append(conds, "temperature = "+arg(*filter.Temperature))
	}
	if filter.Source != nil {
		conds = append(conds, "source = "+arg(*filter.Source))
	}
	if filter.BotCompleted != nil {
		conds = append(conds, "bot_completed = "+arg(*filter.BotCompleted))
	}
	if filter.AssigneeID != nil {
		p := arg(*filter.AssigneeID)
		conds = append(conds, "(qualifier_id = "+p+" OR closer_id = "+p+")")
	}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		phoneTerm := term
		if filter.NormalizedSearch != "" {
			phoneTerm = "%" + filter.NormalizedSearch + "%"
		}
		conds = append(conds, "(full_name ILIKE "+arg(term)+" OR email ILIKE "+arg(term)+" OR normalized_phone LIKE "+arg(phoneTerm)+")")
	}

	switch filter.ViewerRole {
	case models.RoleQualifier:
		p := arg(filter.ViewerID)
		conds = append(conds, "(qualifier_id IS NULL OR qualifier_id = "+p+" OR status = "+arg(models.StatusNewLead)+")")
	case models.RoleCloser:
		conds = append(conds, "closer_id = "+arg(filter.ViewerID))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func marshalLeadJSON(lead *models.Lead) (botPayload, specialStruct, existingDocs []byte, err error) {
	if lead.BotPayload != nil {
		if botPayload, err = json.Marshal(lead.BotPayload); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal bot payload: %w", err)
		}
	}
	if lead.PrivateSpecialStruct != nil {
		if specialStruct, err = json.Marshal(lead.PrivateSpecialStruct); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal private special struct: %w", err)
		}
	}
	if lead.ArchExistingDocs != nil {
		if existingDocs, err = json.Marshal(lead.ArchExistingDocs); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal arch existing docs: %w", err)
		}
	}
	return botPayload, specialStruct, existingDocs, nil
}

// scanLead reads one lead row in leadColumns order.
func scanLead(row pgx.Row) (*models.Lead, error) {
	var lead models.Lead
	var botPayload, specialStruct, existingDocs []byte

	err := row.Scan(
		&lead.ID, &lead.ProjectTypeID, &lead.FullName, &lead.Phone, &lead.NormalizedPhone,
		&lead.Email, &lead.Source, &lead.CampaignName, &lead.AdsetName, &lead.AdName,
		&lead.City, &lead.Street, &lead.Temperature, &lead.Status,
		&lead.QualifierID, &lead.CloserID, &botPayload, &lead.BotTrack, &lead.BotCompleted,
		&lead.StartTimeline, &lead.PlansStatus, &lead.PermitStatus, &lead.BuildingType,
		&lead.SiteAccess, &lead.EstimatedSizeBucket, &lead.IsOccupied, &lead.MamadVariant,
		&lead.PrivateStage, &specialStruct, &lead.ArchService, &lead.ArchPropertyType,
		&lead.ArchPlanningStage, &existingDocs, &lead.RenoType, &lead.RenoHasPlan,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(botPayload) > 0 {
		if err := json.Unmarshal(botPayload, &lead.BotPayload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bot payload: %w", err)
		}
	}
	if len(specialStruct) > 0 {
		if err := json.Unmarshal(specialStruct, &lead.PrivateSpecialStruct); err != nil {
			return nil, fmt.Errorf("failed to unmarshal private special struct: %w", err)
		}
	}
	if len(existingDocs) > 0 {
		if err := json.Unmarshal(existingDocs, &lead.ArchExistingDocs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal arch existing docs: %w", err)
		}
	}
	return &lead, nil
}
