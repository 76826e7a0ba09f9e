package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/auth"
	"github.com/mrk-construction/crm-engine/pkg/metrics"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// AuthHandler handles login, token refresh and session introspection.
type AuthHandler struct {
	authService   services.AuthService
	tokens        *auth.TokenService
	secureCookies bool
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService services.AuthService, tokens *auth.TokenService, secureCookies bool, m *metrics.Metrics, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		tokens:        tokens,
		secureCookies: secureCookies,
		metrics:       m,
		logger:        logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/me", authMiddleware.RequireAuth(h.Me))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.AuthFailures.Inc()
		ServiceError(w, h.logger, "login_failed", err)
		return
	}

	h.setTokenCookies(w, pair)
	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode login response", zap.Error(err))
	}
}

// Refresh handles POST /api/auth/refresh by rotating both tokens.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.RefreshTokenCookie)
	if err != nil {
		h.metrics.AuthFailures.Inc()
		_ = ErrorResponse(w, http.StatusUnauthorized, "missing_refresh_token", "No refresh token provided")
		return
	}

	user, pair, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.metrics.AuthFailures.Inc()
		ServiceError(w, h.logger, "refresh_failed", err)
		return
	}

	h.setTokenCookies(w, pair)
	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode refresh response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout by expiring both cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, auth.AccessTokenCookie)
	h.clearCookie(w, auth.RefreshTokenCookie)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me, returning the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r.Context())
	if !ok {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}
	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode me response", zap.Error(err))
	}
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(h.tokens.AccessTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/api/auth",
		MaxAge:   int(h.tokens.RefreshTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	path := "/"
	if name == auth.RefreshTokenCookie {
		path = "/api/auth"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
