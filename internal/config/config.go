// Package config loads the dashboard's runtime configuration from the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/logging"
	"github.com/Sternrassler/onepa-availability/pkg/onepa"
)

// Config holds runtime configuration for the dashboard binary.
type Config struct {
	Addr            string
	LogLevel        logging.LogLevel
	LogPretty       bool
	Client          client.Config
	AllowedOrigins  []string
	Location        *time.Location
	ShutdownTimeout time.Duration
}

// LoadDotEnv loads variables from the given files (".env" when none are
// named) without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads environment variables and returns a fully populated Config.
func Load() (Config, error) {
	cc := client.DefaultConfig()
	cc.BaseURL = envOrDefault("ONEPA_BASE_URL", cc.BaseURL)
	cc.Origin = envOrDefault("ONEPA_ORIGIN", cc.Origin)
	cc.UserAgent = envOrDefault("ONEPA_USER_AGENT", cc.UserAgent)

	var err error
	if cc.FetchTimeout, err = parseDuration("ONEPA_FETCH_TIMEOUT", cc.FetchTimeout); err != nil {
		return Config{}, err
	}
	if cc.SlotRequestTimeout, err = parseDuration("ONEPA_SLOT_TIMEOUT", cc.SlotRequestTimeout); err != nil {
		return Config{}, err
	}
	if cc.RequestTimeout, err = parseDuration("ONEPA_REQUEST_TIMEOUT", cc.RequestTimeout); err != nil {
		return Config{}, err
	}

	shutdown, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	pretty := false
	if raw := strings.TrimSpace(os.Getenv("LOG_PRETTY")); raw != "" {
		if pretty, err = strconv.ParseBool(raw); err != nil {
			return Config{}, fmt.Errorf("LOG_PRETTY: %w", err)
		}
	}

	loc := onepa.ServiceLocation
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return Config{}, fmt.Errorf("TIMEZONE: %w", err)
		}
	}

	return Config{
		Addr:            listenAddr(envOrDefault("PORT", "8080")),
		LogLevel:        logging.LogLevel(envOrDefault("LOG_LEVEL", string(logging.LevelInfo))),
		LogPretty:       pretty,
		Client:          cc,
		AllowedOrigins:  parseList("ALLOWED_ORIGINS", []string{"*"}),
		Location:        loc,
		ShutdownTimeout: shutdown,
	}, nil
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Pretty = c.LogPretty
	return cfg
}

func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive (got %s)", key, raw)
	}
	return d, nil
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
