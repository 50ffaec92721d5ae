package config

import (
	"fmt"
	"os"
	"strings"
)

// Config aggregates the service configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	return &Config{
		Server:  server,
		Storage: loadStorageConfig(),
	}, nil
}

// ServerConfig describes the HTTP server.
type ServerConfig struct {
	Addr string
}

// loadServerConfig parses the listen address.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StorageConfig selects the persistence backend. An empty DataPath means
// the in-memory store.
type StorageConfig struct {
	DataPath string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		DataPath: strings.TrimSpace(os.Getenv("DAYLIGHT_DATA_PATH")),
	}
}
