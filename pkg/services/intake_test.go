package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/repositories"
)

// mockLeadRepository is a configurable mock for testing lead-facing services.
type mockLeadRepository struct {
	recent     *models.Lead
	lead       *models.Lead
	history    []*models.LeadStatusHistory
	findErr    error
	getErr     error
	createErr  error
	updateErr  error
	transErr   error

	capturedPhone  string
	capturedTypeID int16
	capturedSince  time.Time
	capturedFilter repositories.LeadFilter
	createdLead    *models.Lead
	createdActor   *uuid.UUID
	updatedLead    *models.Lead
	transitions    []transitionCall
}

type transitionCall struct {
	leadID     uuid.UUID
	fromStatus string
	toStatus   string
	changedBy  uuid.UUID
}

func (m *mockLeadRepository) CreateWithInitialHistory(ctx context.Context, lead *models.Lead, changedBy *uuid.UUID) error {
	if m.createErr != nil {
		return m.createErr
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.Status == "" {
		lead.Status = models.StatusNewLead
	}
	m.createdLead = lead
	m.createdActor = changedBy
	return nil
}

func (m *mockLeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.lead == nil {
		return nil, fmt.Errorf("%w: lead %s", apperrors.ErrNotFound, id)
	}
	return m.lead, nil
}

func (m *mockLeadRepository) Update(ctx context.Context, lead *models.Lead) error {
	m.updatedLead = lead
	return m.updateErr
}

func (m *mockLeadRepository) List(ctx context.Context, filter repositories.LeadFilter) ([]*models.Lead, int, error) {
	m.capturedFilter = filter
	if m.lead == nil {
		return nil, 0, nil
	}
	return []*models.Lead{m.lead}, 1, nil
}

func (m *mockLeadRepository) FindRecentByPhone(ctx context.Context, normalizedPhone string, since time.Time) (*models.Lead, error) {
	m.capturedPhone = normalizedPhone
	m.capturedSince = since
	return m.recent, m.findErr
}

func (m *mockLeadRepository) FindRecentByPhoneAndType(ctx context.Context, normalizedPhone string, projectTypeID int16, since time.Time) (*models.Lead, error) {
	m.capturedPhone = normalizedPhone
	m.capturedTypeID = projectTypeID
	m.capturedSince = since
	return m.recent, m.findErr
}

func (m *mockLeadRepository) Transition(ctx context.Context, leadID uuid.UUID, fromStatus, toStatus string, changedBy uuid.UUID) error {
	if m.transErr != nil {
		return m.transErr
	}
	m.transitions = append(m.transitions, transitionCall{leadID, fromStatus, toStatus, changedBy})
	return nil
}

func (m *mockLeadRepository) ListHistory(ctx context.Context, leadID uuid.UUID) ([]*models.LeadStatusHistory, error) {
	return m.history, nil
}

// mockCampaignMappingRepository serves a fixed active rule set.
type mockCampaignMappingRepository struct {
	active []*models.CampaignMapping
	err    error
}

func (m *mockCampaignMappingRepository) ListActive(ctx context.Context) ([]*models.CampaignMapping, error) {
	return m.active, m.err
}
func (m *mockCampaignMappingRepository) List(ctx context.Context) ([]*models.CampaignMapping, error) {
	return m.active, m.err
}
func (m *mockCampaignMappingRepository) GetByID(ctx context.Context, id int64) (*models.CampaignMapping, error) {
	return nil, apperrors.ErrNotFound
}
func (m *mockCampaignMappingRepository) Create(ctx context.Context, mapping *models.CampaignMapping) error {
	return nil
}
func (m *mockCampaignMappingRepository) Update(ctx context.Context, mapping *models.CampaignMapping) error {
	return nil
}
func (m *mockCampaignMappingRepository) Deactivate(ctx context.Context, id int64) error {
	return nil
}

// mockProjectTypeRepository serves the seeded track catalog.
type mockProjectTypeRepository struct {
	types map[string]*models.ProjectType
	err   error
}

func seededProjectTypes() *mockProjectTypeRepository {
	return &mockProjectTypeRepository{types: map[string]*models.ProjectType{
		models.TrackMamad:        {ID: 1, Key: models.TrackMamad, IsActive: true},
		models.TrackPrivateHome:  {ID: 2, Key: models.TrackPrivateHome, IsActive: true},
		models.TrackRenovation:   {ID: 3, Key: models.TrackRenovation, IsActive: true},
		models.TrackArchitecture: {ID: 4, Key: models.TrackArchitecture, IsActive: true},
	}}
}

func (m *mockProjectTypeRepository) List(ctx context.Context) ([]*models.ProjectType, error) {
	var out []*models.ProjectType
	for _, t := range m.types {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockProjectTypeRepository) GetByKey(ctx context.Context, key string) (*models.ProjectType, error) {
	if m.err != nil {
		return nil, m.err
	}
	if t, ok := m.types[key]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: project type %q", apperrors.ErrNotFound, key)
}

func newTestIntake(leadRepo *mockLeadRepository, mappings []*models.CampaignMapping) *intakeService {
	svc := NewIntakeService(
		leadRepo,
		&mockCampaignMappingRepository{active: mappings},
		seededProjectTypes(),
		30*24*time.Hour,
		zap.NewNop(),
	)
	return svc.(*intakeService)
}

func TestClassifyCampaign_FirstMatchByPriority(t *testing.T) {
	// Rules arrive sorted ascending by priority; the lower value wins even
	// when both substrings are present.
	mappings := []*models.CampaignMapping{
		{ContainsText: "אדריכל", ProjectTypeKey: models.TrackArchitecture, Priority: 5},
		{ContainsText: "ממד", ProjectTypeKey: models.TrackMamad, Priority: 10},
	}

	got := ClassifyCampaign("קמפיין ממד אדריכל 2026", mappings)

	assert.Equal(t, models.TrackArchitecture, got)
}

func TestClassifyCampaign_CaseInsensitive(t *testing.T) {
	mappings := []*models.CampaignMapping{
		{ContainsText: "Mamad", ProjectTypeKey: models.TrackMamad, Priority: 10},
	}

	assert.Equal(t, models.TrackMamad, ClassifyCampaign("Summer MAMAD push", mappings))
}

func TestClassifyCampaign_DefaultsToRenovation(t *testing.T) {
	mappings := []*models.CampaignMapping{
		{ContainsText: "ממד", ProjectTypeKey: models.TrackMamad, Priority: 10},
	}

	assert.Equal(t, models.TrackRenovation, ClassifyCampaign("generic brand campaign", mappings))
	assert.Equal(t, models.TrackRenovation, ClassifyCampaign("", mappings))
}

func TestIntakeService_ProcessAdForm_CreatesLead(t *testing.T) {
	leadRepo := &mockLeadRepository{}
	svc := newTestIntake(leadRepo, []*models.CampaignMapping{
		{ContainsText: "ממד", ProjectTypeKey: models.TrackMamad, Priority: 10},
	})

	result, err := svc.ProcessAdForm(context.Background(), AdFormInput{
		Phone:        "050-123-4567",
		CampaignName: "קמפיין ממד קיץ",
	})

	require.NoError(t, err)
	assert.True(t, result.Created)
	require.NotNil(t, leadRepo.createdLead)
	assert.Equal(t, "972501234567", leadRepo.createdLead.NormalizedPhone)
	assert.Equal(t, int16(1), leadRepo.createdLead.ProjectTypeID)
	assert.Equal(t, models.SourceMetaForm, leadRepo.createdLead.Source)
	assert.Equal(t, models.StatusNewLead, leadRepo.createdLead.Status)
	assert.Equal(t, "ליד מטא", leadRepo.createdLead.FullName)
	assert.Nil(t, leadRepo.createdActor)
}

func TestIntakeService_ProcessAdForm_DedupWindow(t *testing.T) {
	leadRepo := &mockLeadRepository{}
	svc := newTestIntake(leadRepo, nil)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.ProcessAdForm(context.Background(), AdFormInput{Phone: "0501234567"})

	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*24*time.Hour), leadRepo.capturedSince)
	assert.Equal(t, "972501234567", leadRepo.capturedPhone)
	assert.Equal(t, int16(3), leadRepo.capturedTypeID)
}

func TestIntakeService_ProcessAdForm_MergeKeepsNonEmptyValues(t *testing.T) {
	email := "existing@example.com"
	campaign := "old campaign"
	existing := &models.Lead{
		ID:              uuid.New(),
		NormalizedPhone: "972501234567",
		Email:           &email,
		CampaignName:    &campaign,
		Status:          models.StatusInitialCallDone,
	}
	leadRepo := &mockLeadRepository{recent: existing}
	svc := newTestIntake(leadRepo, nil)

	result, err := svc.ProcessAdForm(context.Background(), AdFormInput{
		Phone:        "0501234567",
		CampaignName: "new campaign",
		// Email intentionally empty: must not erase the stored address.
	})

	require.NoError(t, err)
	assert.False(t, result.Created)
	require.NotNil(t, leadRepo.updatedLead)
	assert.Equal(t, "new campaign", *leadRepo.updatedLead.CampaignName)
	require.NotNil(t, leadRepo.updatedLead.Email)
	assert.Equal(t, "existing@example.com", *leadRepo.updatedLead.Email)
	assert.Equal(t, models.StatusInitialCallDone, leadRepo.updatedLead.Status)
	assert.Nil(t, leadRepo.createdLead)
}

func TestIntakeService_ProcessAdForm_MissingPhone(t *testing.T) {
	svc := newTestIntake(&mockLeadRepository{}, nil)

	_, err := svc.ProcessAdForm(context.Background(), AdFormInput{})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestIntakeService_ProcessBot_CreatesLeadWithMappedFields(t *testing.T) {
	leadRepo := &mockLeadRepository{}
	svc := newTestIntake(leadRepo, nil)

	payload := map[string]any{
		"phone": "0501234567",
		"track": "ממד",
		"answers": map[string]any{
			"full_name": "דני כהן",
			"timeline":  "מיידי",
		},
	}
	result, err := svc.ProcessBot(context.Background(), BotInput{
		Phone:   "0501234567",
		Track:   "ממד",
		Answers: payload["answers"].(map[string]any),
		Payload: payload,
	})

	require.NoError(t, err)
	assert.True(t, result.Created)
	lead := leadRepo.createdLead
	require.NotNil(t, lead)
	assert.Equal(t, int16(1), lead.ProjectTypeID)
	assert.Equal(t, models.SourceManual, lead.Source)
	assert.Equal(t, "דני כהן", lead.FullName)
	require.NotNil(t, lead.BotTrack)
	assert.Equal(t, models.TrackMamad, *lead.BotTrack)
	require.NotNil(t, lead.StartTimeline)
	assert.Equal(t, "immediate", *lead.StartTimeline)
	assert.True(t, lead.BotCompleted)
	assert.Equal(t, payload, lead.BotPayload)
}

func TestIntakeService_ProcessBot_UpdatesExistingLead(t *testing.T) {
	existing := &models.Lead{
		ID:              uuid.New(),
		ProjectTypeID:   3,
		NormalizedPhone: "972501234567",
		Status:          models.StatusNewLead,
	}
	leadRepo := &mockLeadRepository{recent: existing}
	svc := newTestIntake(leadRepo, nil)

	result, err := svc.ProcessBot(context.Background(), BotInput{
		Phone:   "0501234567",
		Track:   "renovation",
		Answers: map[string]any{"reno_type": "שיפוץ כללי"},
		Payload: map[string]any{"phone": "0501234567"},
	})

	require.NoError(t, err)
	assert.False(t, result.Created)
	require.NotNil(t, leadRepo.updatedLead)
	assert.Equal(t, existing.ID, leadRepo.updatedLead.ID)
	assert.True(t, leadRepo.updatedLead.BotCompleted)
	assert.Nil(t, leadRepo.createdLead)
}

func TestIntakeService_ProcessAdForm_ProjectTypeLookupFailureAborts(t *testing.T) {
	leadRepo := &mockLeadRepository{}
	storeErr := fmt.Errorf("connection refused")
	svc := NewIntakeService(
		leadRepo,
		&mockCampaignMappingRepository{},
		&mockProjectTypeRepository{err: storeErr},
		30*24*time.Hour,
		zap.NewNop(),
	)

	_, err := svc.ProcessAdForm(context.Background(), AdFormInput{Phone: "0501234567"})

	// A failing catalog read must not fall back to the default track.
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, leadRepo.createdLead)
}

func TestIntakeService_ProcessBot_UnknownTrackFallsBack(t *testing.T) {
	leadRepo := &mockLeadRepository{}
	svc := newTestIntake(leadRepo, nil)

	result, err := svc.ProcessBot(context.Background(), BotInput{
		Phone:   "0501234567",
		Track:   "something unheard of",
		Payload: map[string]any{"phone": "0501234567"},
	})

	require.NoError(t, err)
	require.NotNil(t, leadRepo.createdLead)
	assert.Equal(t, int16(3), leadRepo.createdLead.ProjectTypeID)
	// The literal track name is kept even though it resolved to nothing.
	require.NotNil(t, leadRepo.createdLead.BotTrack)
	assert.Equal(t, "something unheard of", *leadRepo.createdLead.BotTrack)
	// No resolved track means no completion inference.
	assert.False(t, result.Lead.BotCompleted)
}

func TestIntakeService_ProcessBot_ExplicitCompletedFlag(t *testing.T) {
	leadRepo := &mockLeadRepository{}
	svc := newTestIntake(leadRepo, nil)

	result, err := svc.ProcessBot(context.Background(), BotInput{
		Phone:     "0501234567",
		Completed: true,
		Payload:   map[string]any{"phone": "0501234567", "completed": true},
	})

	require.NoError(t, err)
	assert.True(t, result.Lead.BotCompleted)
}
