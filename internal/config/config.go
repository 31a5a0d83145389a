// Package config provides configuration loading and validation for the CLI.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the watcher needs for one run. Values come from
// the environment; the CLI loads a .env file first if one exists.
type Config struct {
	// Google account used for the headless sign-in.
	GoogleEmail    string `envconfig:"GOOGLE_EMAIL" validate:"required"`
	GooglePassword string `envconfig:"GOOGLE_PASSWORD" validate:"required"`

	// Chat webhooks. The main webhook receives comment notifications and is
	// required; the alert webhook receives operational alerts and is optional.
	MainWebhook  string `envconfig:"MAIN_WEBHOOK" validate:"required,url,contains=chat.googleapis.com"`
	AlertWebhook string `envconfig:"ALERT_WEBHOOK" validate:"omitempty,url,contains=chat.googleapis.com"`

	// ReportURL is the dashboard page to scrape.
	ReportURL string `envconfig:"REPORT_URL" default:"https://lookerstudio.google.com/reporting/b69cfd73-8c0a-453d-9c10-6561fa953f7c/page/p_bghtutfsbd" validate:"required,url"`

	// Paths
	AuthStatePath   string `envconfig:"AUTH_STATE_PATH" default:"auth_state.json"`
	CommentsLogPath string `envconfig:"COMMENTS_LOG_PATH" default:"comments_log.csv"`
	LogFile         string `envconfig:"LOG_FILE" default:"nps-watcher.log"`
	ScreenshotDir   string `envconfig:"SCREENSHOT_DIR" default:"failures"`

	// DatabaseURL switches the ledger from the CSV file to Postgres when set.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Browser wait budgets.
	NavigationTimeout   time.Duration `envconfig:"NAVIGATION_TIMEOUT" default:"60s"`
	SelectorTimeout     time.Duration `envconfig:"SELECTOR_TIMEOUT" default:"30s"`
	LoginSuccessTimeout time.Duration `envconfig:"LOGIN_SUCCESS_TIMEOUT" default:"120s"`
	PushApprovalTimeout time.Duration `envconfig:"PUSH_APPROVAL_TIMEOUT" default:"180s"`

	// DispatchInterval paces outbound notifications.
	DispatchInterval time.Duration `envconfig:"DISPATCH_INTERVAL" default:"1s"`
}

// Load reads and validates the configuration. Missing credentials or a
// missing delivery webhook are a startup error; nothing runs without them.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
