package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/metrics"
	"github.com/mrk-construction/crm-engine/pkg/models"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// mockIntakeService is a configurable mock for testing WebhookHandler.
type mockIntakeService struct {
	result *services.IntakeResult
	err    error

	capturedAdForm *services.AdFormInput
	capturedBot    *services.BotInput
}

func (m *mockIntakeService) ProcessAdForm(ctx context.Context, input services.AdFormInput) (*services.IntakeResult, error) {
	m.capturedAdForm = &input
	return m.result, m.err
}

func (m *mockIntakeService) ProcessBot(ctx context.Context, input services.BotInput) (*services.IntakeResult, error) {
	m.capturedBot = &input
	return m.result, m.err
}

func newWebhookHandler(intake *mockIntakeService) *WebhookHandler {
	return NewWebhookHandler(intake, metrics.New(), zap.NewNop())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestWebhookHandler_Meta_Created(t *testing.T) {
	leadID := uuid.New()
	intake := &mockIntakeService{result: &services.IntakeResult{
		Lead:    &models.Lead{ID: leadID},
		Created: true,
	}}
	h := newWebhookHandler(intake)

	rec := postJSON(t, h.Meta, "/webhooks/meta", map[string]any{
		"phone":         "0501234567",
		"full_name":     "דני כהן",
		"campaign_name": "קמפיין ממד",
		"adset":         "adset-7",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "created", resp.Status)
	assert.Equal(t, leadID.String(), resp.LeadID)

	require.NotNil(t, intake.capturedAdForm)
	assert.Equal(t, "0501234567", intake.capturedAdForm.Phone)
	assert.Equal(t, "קמפיין ממד", intake.capturedAdForm.CampaignName)
	// The short alias fills in when the long key is absent.
	assert.Equal(t, "adset-7", intake.capturedAdForm.AdsetName)
}

func TestWebhookHandler_Meta_Updated(t *testing.T) {
	leadID := uuid.New()
	intake := &mockIntakeService{result: &services.IntakeResult{
		Lead: &models.Lead{ID: leadID},
	}}
	h := newWebhookHandler(intake)

	rec := postJSON(t, h.Meta, "/webhooks/meta", map[string]any{"phone": "0501234567"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "updated", resp.Status)
}

func TestWebhookHandler_Meta_MissingPhone(t *testing.T) {
	intake := &mockIntakeService{}
	h := newWebhookHandler(intake)

	rec := postJSON(t, h.Meta, "/webhooks/meta", map[string]any{"full_name": "No Phone"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, intake.capturedAdForm)
}

func TestWebhookHandler_Meta_NumericPhone(t *testing.T) {
	intake := &mockIntakeService{result: &services.IntakeResult{
		Lead: &models.Lead{ID: uuid.New()}, Created: true,
	}}
	h := newWebhookHandler(intake)

	rec := postJSON(t, h.Meta, "/webhooks/meta", map[string]any{"phone": 501234567})

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, intake.capturedAdForm)
	assert.Equal(t, "501234567", intake.capturedAdForm.Phone)
}

func TestWebhookHandler_WhatsApp_ForwardsPayload(t *testing.T) {
	leadID := uuid.New()
	intake := &mockIntakeService{result: &services.IntakeResult{
		Lead: &models.Lead{ID: leadID},
	}}
	h := newWebhookHandler(intake)

	rec := postJSON(t, h.WhatsApp, "/webhooks/whatsapp", map[string]any{
		"phone":     "0501234567",
		"track":     "ממד",
		"completed": true,
		"answers":   map[string]any{"timeline": "מיידי"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, intake.capturedBot)
	assert.Equal(t, "ממד", intake.capturedBot.Track)
	assert.True(t, intake.capturedBot.Completed)
	assert.Equal(t, "מיידי", intake.capturedBot.Answers["timeline"])
	// The whole body rides along for audit.
	assert.Equal(t, "0501234567", intake.capturedBot.Payload["phone"])
}

func TestWebhookHandler_WhatsApp_NewLeadStillAnswersUpdated(t *testing.T) {
	leadID := uuid.New()
	intake := &mockIntakeService{result: &services.IntakeResult{
		Lead:    &models.Lead{ID: leadID},
		Created: true,
	}}
	h := newWebhookHandler(intake)

	rec := postJSON(t, h.WhatsApp, "/webhooks/whatsapp", map[string]any{
		"phone": "0501234567",
	})

	// Only the ad-form channel distinguishes created from updated.
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "updated", resp["status"])
	assert.Equal(t, leadID.String(), resp["lead_id"])
}

func TestWebhookHandler_WhatsApp_InvalidJSON(t *testing.T) {
	intake := &mockIntakeService{}
	h := newWebhookHandler(intake)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	h.WhatsApp(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, intake.capturedBot)
}
