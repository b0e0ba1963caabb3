package crypto

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"golang.org/x/crypto/bcrypt"

	"gitlab.com/code-engine.net/internal/config"
	"gitlab.com/code-engine.net/internal/core/ports/primary"
)

var _ primary.TokenService = (*TokenServiceImpl)(nil)

var (
	ErrInvalidToken = fmt.Errorf("invalid token")
)

type TokenServiceImpl struct {
	HMACSecretKey string
}

func NewTokenService(jwtConfig *config.JwtConfig) primary.TokenService {
	return &TokenServiceImpl{
		HMACSecretKey: jwtConfig.Secret,
	}
}

func (s TokenServiceImpl) GenerateTokenHMAC(ctx context.Context, method string, claims map[string]interface{}) (string, error) {
	signingMethod := jwt.GetSigningMethod(method)
	if signingMethod == nil {
		return "", fmt.Errorf("unsupported signing method: %s", method)
	}

	// Ensure the claims map contains an expiration time
	if _, exists := claims["exp"]; !exists {
		claims["exp"] = time.Now().Add(time.Hour * 1).Unix() // Set expiry to 1 hour from now
	}

	tok := jwt.NewWithClaims(signingMethod, jwt.MapClaims(claims))
	return tok.SignedString([]byte(s.HMACSecretKey))
}

func (s TokenServiceImpl) VerifyTokenHMAC(ctx context.Context, token string, method string) (bool, error) {
	signingMethod := jwt.GetSigningMethod(method)
	if signingMethod == nil {
		return false, fmt.Errorf("unsupported signing method: %s", method)
	}

	parsedToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.HMACSecretKey), nil
	})
	if err != nil {
		return false, err
	}

	return parsedToken.Valid, nil
}

func (TokenServiceImpl) HashAPIKey(ctx context.Context, apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (TokenServiceImpl) VerifyAPIKey(ctx context.Context, apiKeyHash string, apiKey string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(apiKeyHash), []byte(apiKey))
	if err != nil {
		return false, err
	}
	return true, nil
}
