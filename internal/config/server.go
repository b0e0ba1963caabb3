package config

import (
	"os"
	"strconv"
)

type ServerConfig struct {
	Port int
}

func NewServerConfig() *ServerConfig {
	port, err := strconv.Atoi(os.Getenv("HTTP_PORT"))
	if err != nil {
		port = 3000
	}
	return &ServerConfig{
		Port: port,
	}
}
