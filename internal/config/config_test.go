package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes a variable for the test while restoring it afterwards.
// envconfig treats a set-but-empty variable as a value, not as absent.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_EMAIL", "watcher@example.com")
	t.Setenv("GOOGLE_PASSWORD", "hunter2")
	t.Setenv("MAIN_WEBHOOK", "https://chat.googleapis.com/v1/spaces/AAA/messages?key=k&token=t")
	// Clear optional knobs that may leak in from the host environment.
	for _, key := range []string{
		"ALERT_WEBHOOK", "DATABASE_URL", "REPORT_URL", "AUTH_STATE_PATH",
		"COMMENTS_LOG_PATH", "LOG_FILE", "SCREENSHOT_DIR",
		"NAVIGATION_TIMEOUT", "SELECTOR_TIMEOUT", "LOGIN_SUCCESS_TIMEOUT",
		"PUSH_APPROVAL_TIMEOUT", "DISPATCH_INTERVAL",
	} {
		unsetEnv(t, key)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "auth_state.json", cfg.AuthStatePath)
	assert.Equal(t, "comments_log.csv", cfg.CommentsLogPath)
	assert.Contains(t, cfg.ReportURL, "lookerstudio.google.com")
	assert.Equal(t, 60*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 30*time.Second, cfg.SelectorTimeout)
	assert.Equal(t, 120*time.Second, cfg.LoginSuccessTimeout)
	assert.Equal(t, 180*time.Second, cfg.PushApprovalTimeout)
	assert.Equal(t, time.Second, cfg.DispatchInterval)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_MissingCredentialsFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOOGLE_EMAIL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingMainWebhookFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAIN_WEBHOOK", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsForeignWebhookHost(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAIN_WEBHOOK", "https://example.com/webhook")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_AlertWebhookOptionalButValidated(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AlertWebhook)

	t.Setenv("ALERT_WEBHOOK", "https://example.com/not-chat")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISPATCH_INTERVAL", "250ms")
	t.Setenv("COMMENTS_LOG_PATH", "/var/lib/nps/comments_log.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.DispatchInterval)
	assert.Equal(t, "/var/lib/nps/comments_log.csv", cfg.CommentsLogPath)
}
