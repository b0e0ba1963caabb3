package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
	"gitlab.com/code-engine.net/internal/handlers/response"
)

// TokenRequest carries the API key presented for a token exchange.
type TokenRequest struct {
	ApiKey string `json:"api_key"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Handler exchanges a configured API key for a short-lived bearer token.
type Handler struct {
	tokenService primary.TokenService
	jwtConfig    *config.JwtConfig
	logger       primary.Logger
}

func NewHandler(tokenService primary.TokenService, jwtConfig *config.JwtConfig, logger primary.Logger) *Handler {
	return &Handler{
		tokenService: tokenService,
		jwtConfig:    jwtConfig,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/code-engine/token", h.IssueToken).Methods("POST")
}

// IssueToken verifies the presented API key against the configured hash and
// returns an HMAC-signed bearer token. Issuance is disabled unless both the
// signing secret and the key hash are configured.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.jwtConfig.Secret == "" || h.jwtConfig.ApiKeyHash == "" {
		response.WriteError(w, response.ErrorMessage{
			Message:    "Token issuance is not configured",
			StatusCode: http.StatusServiceUnavailable,
		})
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{
			Message:    "Invalid request",
			StatusCode: http.StatusBadRequest,
		})
		return
	}

	ok, err := h.tokenService.VerifyAPIKey(r.Context(), h.jwtConfig.ApiKeyHash, req.ApiKey)
	if err != nil || !ok {
		h.logger.Error("Rejected API key", "error", err)
		response.WriteError(w, response.ErrorMessage{
			Message:    "Invalid API key",
			StatusCode: http.StatusUnauthorized,
		})
		return
	}

	token, err := h.tokenService.GenerateTokenHMAC(r.Context(), "HS256", map[string]interface{}{
		"sub": "code-engine-client",
	})
	if err != nil {
		h.logger.Error("Failed to sign token", "error", err)
		response.WriteError(w, response.ErrorMessage{
			Message:    "Failed to issue token",
			StatusCode: http.StatusInternalServerError,
		})
		return
	}

	response.WriteSuccess(w, TokenResponse{Token: token})
}
