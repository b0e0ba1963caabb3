package handlers

import (
	"net/http"
	"strings"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
)

type MiddlewareProvider struct {
	SecretOption string
	ApiKeyHash   string
	tokenService primary.TokenService
	logger       primary.Logger
}

func NewMiddleware(jwtConfig *config.JwtConfig, tokenService primary.TokenService, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		SecretOption: jwtConfig.Secret,
		ApiKeyHash:   jwtConfig.ApiKeyHash,
		tokenService: tokenService,
		logger:       logger,
	}
}

func (m *MiddlewareProvider) enabled() bool {
	return m.SecretOption != "" || m.ApiKeyHash != ""
}

// AuthMiddleware accepts either a Bearer token signed with the configured
// secret or an X-Api-Key matching the configured hash. When neither secret
// nor hash is configured the middleware passes every request through.
func (m *MiddlewareProvider) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if apiKey := r.Header.Get("X-Api-Key"); apiKey != "" && m.ApiKeyHash != "" {
			ok, err := m.tokenService.VerifyAPIKey(r.Context(), m.ApiKeyHash, apiKey)
			if err == nil && ok {
				next.ServeHTTP(w, r)
				return
			}
			m.logger.Warn("Rejected API key")
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || m.SecretOption == "" {
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		ok, err := m.tokenService.VerifyTokenHMAC(r.Context(), tokenString, "HS256")
		if err != nil || !ok {
			m.logger.Warn("Rejected bearer token", "error", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
