package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime configuration for the dashboard client.
// Values are read from ADMCTL_* environment variables with sane defaults,
// so the CLI works against a local server with zero configuration.
type Config struct {
	// BaseURL is the dashboard API endpoint all requests are sent to.
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:5000/api"`

	// HTTPTimeout bounds every ordinary request, including the retried
	// send after a token refresh.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// RefreshTimeout bounds the token refresh call itself. A hung refresh
	// would otherwise leave every queued request waiting indefinitely.
	RefreshTimeout time.Duration `envconfig:"REFRESH_TIMEOUT" default:"30s"`

	// CredentialsPath overrides the default credentials file location
	// (~/.admctl/credentials.json).
	CredentialsPath string `envconfig:"CREDENTIALS_PATH"`

	// LogLevel is a zerolog level string (debug, info, warn, error).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// AppName is displayed in the CLI banner.
	AppName string `envconfig:"APP_NAME" default:"Admin Client"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("admctl", &c); err != nil {
		return Config{}, err
	}
	if c.CredentialsPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, err
		}
		c.CredentialsPath = filepath.Join(home, ".admctl", "credentials.json")
	}
	return c, nil
}
