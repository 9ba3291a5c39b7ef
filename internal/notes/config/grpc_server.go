package config

import (
	"net"
	"strconv"
	"time"
)

// GRPCConfig конфигурация gRPC сервера health-проверок.
type GRPCConfig struct {
	Host           string        `yaml:"host" env:"NOTES_GRPC_HOST" env-default:"0.0.0.0"`
	Port           int           `yaml:"port" env:"NOTES_GRPC_PORT" env-default:"50053"`
	HealthInterval time.Duration `yaml:"health_interval" env:"NOTES_GRPC_HEALTH_INTERVAL" env-default:"30s"`
}

// GetAddress возвращает адрес для gRPC сервера.
func (g *GRPCConfig) GetAddress() string {
	return net.JoinHostPort(g.Host, strconv.Itoa(g.Port))
}
