package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds app-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	DatabaseURL           string
	ModelServerEndpoint   string
	ClaudeAPIKey          string
	ClaudeModel           string
	GoogleCredentialsFile string
	GoogleTokenFile       string
	SyncWindowDays        int
	SyncMaxMessages       int
	SlackWebhookURL       string
	APIToken              string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.ModelServerEndpoint, "model-server-endpoint", "", "base URL of the inference sidecar serving embed/classify/summarize")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude summarizer (empty = sidecar summarizer)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model used when claude-api-key is set")
	fs.StringVar(&c.GoogleCredentialsFile, "google-credentials-file", "", "path to the Gmail OAuth client credentials JSON")
	fs.StringVar(&c.GoogleTokenFile, "google-token-file", "", "path to the stored Gmail OAuth token JSON")
	fs.IntVar(&c.SyncWindowDays, "sync-window-days", 3, "how many days back a sync pass looks (1..30)")
	fs.IntVar(&c.SyncMaxMessages, "sync-max-messages", 10, "maximum messages fetched per sync pass (1..500)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for escalation and compliance notifications")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on mutating API routes (empty = no auth)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// The classifier heads always run against the sidecar
	if c.ModelServerEndpoint == "" {
		errs = append(errs, errors.New("MODEL_SERVER_ENDPOINT is required"))
	}

	// Claude model only matters when the Claude summarizer is enabled
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}

	// Gmail OAuth material is required to reach the mailbox
	if c.GoogleCredentialsFile == "" {
		errs = append(errs, errors.New("GOOGLE_CREDENTIALS_FILE is required"))
	}
	if c.GoogleTokenFile == "" {
		errs = append(errs, errors.New("GOOGLE_TOKEN_FILE is required"))
	}

	if c.SyncWindowDays <= 0 || c.SyncWindowDays > 30 {
		errs = append(errs, fmt.Errorf("invalid SYNC_WINDOW_DAYS %d (must be 1..30)", c.SyncWindowDays))
	}
	if c.SyncMaxMessages <= 0 || c.SyncMaxMessages > 500 {
		errs = append(errs, fmt.Errorf("invalid SYNC_MAX_MESSAGES %d (must be 1..500)", c.SyncMaxMessages))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
