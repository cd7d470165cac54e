package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultAPIURL = "https://fmrc-app-server-nestjs.vercel.app"

type Config struct {
	APIURL         string
	HTTPTimeout    time.Duration
	SearchDelay    time.Duration
	SessionFile    string
	ExportDir      string
	Strategy       string
	KeepSuperseded bool
	LogLevel       string

	OAuthClientID     string
	OAuthClientSecret string
	OAuthTokenURL     string
}

// LoadConfig lee la configuración del entorno (main ya cargó el .env).
func LoadConfig() (Config, error) {
	apiURL := os.Getenv("CUSTOMERS_API_URL")
	if apiURL == "" {
		apiURL = os.Getenv("VITE_API_SERVER")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	timeout, err := durationEnv("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	delay, err := durationEnv("SEARCH_DEBOUNCE", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}

	sessionFile := os.Getenv("SESSION_FILE")
	if sessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		sessionFile = filepath.Join(dir, "customerdesk", "session.json")
	}

	exportDir := os.Getenv("EXPORT_DIR")
	if exportDir == "" {
		exportDir = "."
	}

	keep := false
	if v := strings.TrimSpace(os.Getenv("KEEP_SUPERSEDED")); v != "" {
		keep, err = strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("KEEP_SUPERSEDED inválido: %w", err)
		}
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return Config{
		APIURL:            apiURL,
		HTTPTimeout:       timeout,
		SearchDelay:       delay,
		SessionFile:       sessionFile,
		ExportDir:         exportDir,
		Strategy:          os.Getenv("RECONCILE_STRATEGY"),
		KeepSuperseded:    keep,
		LogLevel:          level,
		OAuthClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
		OAuthTokenURL:     os.Getenv("OAUTH_TOKEN_URL"),
	}, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s inválido: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s debe ser positivo", key)
	}
	return d, nil
}
