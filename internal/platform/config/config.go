package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultPort            = "8080"
	DefaultLogLevel        = "info"
	DefaultMaxConnections  = 50
	DefaultShutdownTimeout = 10 * time.Second
	DefaultServiceName     = "hello"
)

// Config holds the settings the server needs at startup.
type Config struct {
	// Addr is the TCP address the public listener binds, built from HOST and PORT.
	Addr string
	// LogLevel is a zap level name.
	LogLevel string
	// MaxConnections caps concurrent connections; zero disables the cap.
	MaxConnections int
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
	// MetricsAddr enables a separate Prometheus listener when non-empty.
	MetricsAddr string
	// OTLPEndpoint enables trace export when non-empty.
	OTLPEndpoint string
	// ServiceName identifies the process in traces.
	ServiceName string
	// DocsEnabled serves the OpenAPI document and docs UI next to the API.
	DocsEnabled bool
}

// Load reads files (default ".env") into the process environment without
// overriding variables that are already set, then builds a Config. Missing
// env files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:         net.JoinHostPort(os.Getenv("HOST"), getenv("PORT", DefaultPort)),
		LogLevel:     getenv("LOG_LEVEL", DefaultLogLevel),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getenv("SERVICE_NAME", DefaultServiceName),
	}

	var err error
	if cfg.MaxConnections, err = intEnv("MAX_CONNECTIONS", DefaultMaxConnections); err != nil {
		return Config{}, err
	}
	if cfg.MaxConnections < 0 {
		return Config{}, fmt.Errorf("MAX_CONNECTIONS must not be negative, got %d", cfg.MaxConnections)
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.DocsEnabled, err = boolEnv("API_DOCS_ENABLED"); err != nil {
		return Config{}, err
	}
	if port := getenv("PORT", DefaultPort); !validPort(port) {
		return Config{}, fmt.Errorf("PORT must be a number between 0 and 65535, got %q", port)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func boolEnv(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func validPort(port string) bool {
	n, err := strconv.Atoi(port)
	return err == nil && n >= 0 && n <= 65535
}
