package config

import (
	"os"
	"strconv"
	"time"
)

type RedisConfig struct {
	DB        int
	Url       string
	Password  string
	StatusTTL time.Duration
}

func NewRedisConfig() *RedisConfig {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "localhost:6379"
	}
	ttlSec, err := strconv.Atoi(os.Getenv("REDIS_STATUS_TTL_SEC"))
	if err != nil {
		ttlSec = 300
	}
	return &RedisConfig{
		DB:        0,
		Url:       url,
		Password:  os.Getenv("REDIS_PASSWORD"),
		StatusTTL: time.Duration(ttlSec) * time.Second,
	}
}
