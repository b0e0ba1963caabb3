package primary

import (
	"context"
)

// TokenService issues and checks the credentials accepted by the HTTP API:
// HMAC-signed bearer tokens and bcrypt-hashed API keys.
type TokenService interface {
	GenerateTokenHMAC(ctx context.Context, method string, claims map[string]interface{}) (string, error)
	VerifyTokenHMAC(ctx context.Context, token string, method string) (bool, error)
	HashAPIKey(ctx context.Context, apiKey string) (string, error)
	VerifyAPIKey(ctx context.Context, apiKeyHash string, apiKey string) (bool, error)
}
