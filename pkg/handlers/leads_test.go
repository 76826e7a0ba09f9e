package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/apperrors"
	"github.com/mrk-construction/crm-engine/pkg/auth"
	"github.com/mrk-construction/crm-engine/pkg/metrics"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// mockLeadService is a configurable mock for testing LeadHandler.
type mockLeadService struct {
	lead    *models.Lead
	page    *services.LeadPage
	history []*models.LeadStatusHistory
	err     error

	capturedStatus   string
	capturedCloserID uuid.UUID
}

func (m *mockLeadService) List(ctx context.Context, viewer *models.User, input services.LeadListInput) (*services.LeadPage, error) {
	return m.page, m.err
}

func (m *mockLeadService) Get(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Lead, error) {
	return m.lead, m.err
}

func (m *mockLeadService) Create(ctx context.Context, actor *models.User, lead *models.Lead) error {
	return m.err
}

func (m *mockLeadService) Update(ctx context.Context, actor *models.User, id uuid.UUID, input services.LeadUpdateInput) (*models.Lead, error) {
	return m.lead, m.err
}

func (m *mockLeadService) Transition(ctx context.Context, actor *models.User, id uuid.UUID, toStatus string) (*models.Lead, error) {
	m.capturedStatus = toStatus
	if m.err != nil {
		return nil, m.err
	}
	return m.lead, nil
}

func (m *mockLeadService) AssignCloser(ctx context.Context, actor *models.User, id, closerID uuid.UUID) (*models.Lead, error) {
	m.capturedCloserID = closerID
	if m.err != nil {
		return nil, m.err
	}
	return m.lead, nil
}

func (m *mockLeadService) History(ctx context.Context, viewer *models.User, id uuid.UUID) ([]*models.LeadStatusHistory, error) {
	return m.history, m.err
}

func authedRequest(method, path string, body []byte, user *models.User) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	return req.WithContext(auth.WithUser(req.Context(), user))
}

func TestLeadHandler_Transition_Forbidden(t *testing.T) {
	svc := &mockLeadService{err: fmt.Errorf("%w: role qualifier cannot set status won", apperrors.ErrForbidden)}
	h := NewLeadHandler(svc, metrics.New(), zap.NewNop())

	leadID := uuid.New()
	user := &models.User{ID: uuid.New(), Role: models.RoleQualifier}
	body, _ := json.Marshal(map[string]string{"status": models.StatusWon})
	req := authedRequest(http.MethodPost, "/api/leads/"+leadID.String()+"/transition", body, user)
	req.SetPathValue("id", leadID.String())

	rec := httptest.NewRecorder()
	h.Transition(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, models.StatusWon, svc.capturedStatus)
}

func TestLeadHandler_Transition_Success(t *testing.T) {
	leadID := uuid.New()
	svc := &mockLeadService{lead: &models.Lead{ID: leadID, Status: models.StatusWon}}
	h := NewLeadHandler(svc, metrics.New(), zap.NewNop())

	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	body, _ := json.Marshal(map[string]string{"status": models.StatusWon})
	req := authedRequest(http.MethodPost, "/api/leads/"+leadID.String()+"/transition", body, user)
	req.SetPathValue("id", leadID.String())

	rec := httptest.NewRecorder()
	h.Transition(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var lead models.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lead))
	assert.Equal(t, models.StatusWon, lead.Status)
}

func TestLeadHandler_AssignCloser_Success(t *testing.T) {
	leadID := uuid.New()
	closerID := uuid.New()
	svc := &mockLeadService{lead: &models.Lead{ID: leadID, CloserID: &closerID}}
	h := NewLeadHandler(svc, metrics.New(), zap.NewNop())

	user := &models.User{ID: uuid.New(), Role: models.RoleQualifier}
	body, _ := json.Marshal(map[string]string{"closer_id": closerID.String()})
	req := authedRequest(http.MethodPost, "/api/leads/"+leadID.String()+"/assign-closer", body, user)
	req.SetPathValue("id", leadID.String())

	rec := httptest.NewRecorder()
	h.AssignCloser(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, closerID, svc.capturedCloserID)
}

func TestLeadHandler_AssignCloser_MissingCloserID(t *testing.T) {
	leadID := uuid.New()
	h := NewLeadHandler(&mockLeadService{}, metrics.New(), zap.NewNop())

	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	req := authedRequest(http.MethodPost, "/api/leads/"+leadID.String()+"/assign-closer", []byte(`{}`), user)
	req.SetPathValue("id", leadID.String())

	rec := httptest.NewRecorder()
	h.AssignCloser(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeadHandler_Get_InvalidID(t *testing.T) {
	h := NewLeadHandler(&mockLeadService{}, metrics.New(), zap.NewNop())

	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	req := authedRequest(http.MethodGet, "/api/leads/not-a-uuid", nil, user)
	req.SetPathValue("id", "not-a-uuid")

	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeadHandler_Get_HiddenLeadReadsAsNotFound(t *testing.T) {
	leadID := uuid.New()
	svc := &mockLeadService{err: fmt.Errorf("%w: lead %s", apperrors.ErrNotFound, leadID)}
	h := NewLeadHandler(svc, metrics.New(), zap.NewNop())

	user := &models.User{ID: uuid.New(), Role: models.RoleCloser}
	req := authedRequest(http.MethodGet, "/api/leads/"+leadID.String(), nil, user)
	req.SetPathValue("id", leadID.String())

	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeadHandler_List_PassesThroughPage(t *testing.T) {
	svc := &mockLeadService{page: &services.LeadPage{
		Leads:    []*models.Lead{{ID: uuid.New(), Status: models.StatusNewLead}},
		Total:    1,
		Page:     1,
		PageSize: 20,
	}}
	h := NewLeadHandler(svc, metrics.New(), zap.NewNop())

	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	req := authedRequest(http.MethodGet, "/api/leads?status=new_lead", nil, user)

	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var page services.LeadPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Leads, 1)
}
