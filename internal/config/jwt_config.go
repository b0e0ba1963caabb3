package config

import "os"

type JwtConfig struct {
	Secret     string
	ApiKeyHash string
}

func NewJwtConfig() *JwtConfig {
	return &JwtConfig{
		Secret:     os.Getenv("JWT_SECRET"),
		ApiKeyHash: os.Getenv("API_KEY_HASH"),
	}
}
