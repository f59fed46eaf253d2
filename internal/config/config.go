package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the worker needs. It is built once at startup and
// passed explicitly to each component; nothing reads the environment after
// Load returns.
type Config struct {
	BackendBaseURL string `envconfig:"BACKEND_BASE_URL" required:"true"`
	BackendAppID   string `envconfig:"BACKEND_APP_ID" required:"true"`
	BackendAPIKey  string `envconfig:"BACKEND_API_KEY" required:"true"`

	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID" required:"true"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN" required:"true"`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER" required:"true"`

	RegistrationTemplateSID string `envconfig:"TWILIO_REGISTRATION_TEMPLATE_SID" required:"true"`
	ReminderTemplateSID     string `envconfig:"TWILIO_REMINDER_TEMPLATE_SID" required:"true"`

	RegistrationLinkBase string `envconfig:"REGISTRATION_LINK_BASE" default:"https://rebuy.app/groups"`

	LeagueTZ     string        `envconfig:"LEAGUE_TZ" default:"Asia/Jerusalem"`
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"1m"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr     string        `envconfig:"HTTP_ADDR" default:":8080"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.TickInterval <= 0 {
		return cfg, fmt.Errorf("config: TICK_INTERVAL must be positive")
	}
	return cfg, nil
}

// Location resolves the configured league timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.LeagueTZ)
}
