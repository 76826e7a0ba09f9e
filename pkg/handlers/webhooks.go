package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/metrics"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// WebhookHandler handles unauthenticated intake endpoints for the ad
// platform and the conversational bot.
type WebhookHandler struct {
	intake  services.IntakeService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(intake services.IntakeService, m *metrics.Metrics, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{intake: intake, metrics: m, logger: logger}
}

// RegisterRoutes registers the webhook handler's routes on the given mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/meta", h.Meta)
	mux.HandleFunc("POST /webhooks/whatsapp", h.WhatsApp)
}

type webhookResponse struct {
	Status string `json:"status"`
	LeadID string `json:"lead_id"`
}

// Meta handles POST /webhooks/meta: one ad platform form submission.
// Field aliases (campaign vs campaign_name) match what the platform
// actually sends across form versions.
func (h *WebhookHandler) Meta(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.reject(w, "meta", "invalid_json")
		return
	}

	input := services.AdFormInput{
		Phone:        stringField(payload, "phone"),
		FullName:     firstStringField(payload, "full_name", "name"),
		Email:        stringField(payload, "email"),
		CampaignName: firstStringField(payload, "campaign_name", "campaign"),
		AdsetName:    firstStringField(payload, "adset_name", "adset"),
		AdName:       firstStringField(payload, "ad_name", "ad"),
	}
	if input.Phone == "" {
		h.reject(w, "meta", "missing_phone")
		return
	}

	result, err := h.intake.ProcessAdForm(r.Context(), input)
	if err != nil {
		h.metrics.WebhookEvents.WithLabelValues("meta", "error").Inc()
		ServiceError(w, h.logger, "meta_webhook_failed", err)
		return
	}

	h.respond(w, "meta", result)
}

// WhatsApp handles POST /webhooks/whatsapp: one bot session result.
func (h *WebhookHandler) WhatsApp(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.reject(w, "whatsapp", "invalid_json")
		return
	}

	input := services.BotInput{
		Phone:     stringField(payload, "phone"),
		FullName:  firstStringField(payload, "full_name", "name"),
		Track:     stringField(payload, "track"),
		Answers:   mapField(payload, "answers"),
		Payload:   payload,
		Completed: boolField(payload, "completed") || boolField(payload, "bot_completed"),
	}
	if input.Phone == "" {
		h.reject(w, "whatsapp", "missing_phone")
		return
	}

	result, err := h.intake.ProcessBot(r.Context(), input)
	if err != nil {
		h.metrics.WebhookEvents.WithLabelValues("whatsapp", "error").Inc()
		ServiceError(w, h.logger, "whatsapp_webhook_failed", err)
		return
	}

	// The bot channel always answers "updated", even when the session
	// created a fresh lead.
	h.metrics.WebhookEvents.WithLabelValues("whatsapp", "updated").Inc()
	if err := WriteJSON(w, http.StatusOK, webhookResponse{Status: "updated", LeadID: result.Lead.ID.String()}); err != nil {
		h.logger.Error("Failed to encode webhook response", zap.Error(err))
	}
}

func (h *WebhookHandler) respond(w http.ResponseWriter, channel string, result *services.IntakeResult) {
	status := "updated"
	code := http.StatusOK
	if result.Created {
		status = "created"
		code = http.StatusCreated
	}
	h.metrics.WebhookEvents.WithLabelValues(channel, status).Inc()

	if err := WriteJSON(w, code, webhookResponse{Status: status, LeadID: result.Lead.ID.String()}); err != nil {
		h.logger.Error("Failed to encode webhook response", zap.Error(err))
	}
}

func (h *WebhookHandler) reject(w http.ResponseWriter, channel, reason string) {
	h.metrics.WebhookRejections.WithLabelValues(channel, reason).Inc()
	_ = ErrorResponse(w, http.StatusBadRequest, reason, "Invalid webhook payload")
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	// Phones occasionally arrive as numbers.
	if v, ok := payload[key].(float64); ok {
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

func firstStringField(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := stringField(payload, key); v != "" {
			return v
		}
	}
	return ""
}

func mapField(payload map[string]any, key string) map[string]any {
	if v, ok := payload[key].(map[string]any); ok {
		return v
	}
	return nil
}

func boolField(payload map[string]any, key string) bool {
	v, ok := payload[key].(bool)
	return ok && v
}
