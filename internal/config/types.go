package config

// Config is the root configuration structure for gitmon.
// Serialised to ~/.gitmon/config.json.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"   json:"database"`
	GitHub     GitHubConfig     `mapstructure:"github"     json:"github"`
	AI         AIConfig         `mapstructure:"ai"         json:"ai"`
	Classifier ClassifierConfig `mapstructure:"classifier" json:"classifier"`
	Summarizer SummarizerConfig `mapstructure:"summarizer" json:"summarizer"`
	Gateway    GatewayConfig    `mapstructure:"gateway"    json:"gateway"`
	Notify     NotifyConfig     `mapstructure:"notify"     json:"notify"`
}

// DatabaseConfig controls the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// GitHubConfig controls the upstream events feed.
type GitHubConfig struct {
	// Token raises the API rate limit from 60 to 5000 requests/hour.
	// The feed itself is public, so an empty token still works.
	Token string `mapstructure:"token" json:"token"`
	// PollIntervalSecs is the sleep between successful fetch cycles.
	PollIntervalSecs int `mapstructure:"poll_interval_secs" json:"poll_interval_secs"`
	// InitialBackoffMs and MaxBackoffMs bound the failure backoff window.
	InitialBackoffMs int `mapstructure:"initial_backoff_ms" json:"initial_backoff_ms"`
	MaxBackoffMs     int `mapstructure:"max_backoff_ms"     json:"max_backoff_ms"`
}

// AIConfig controls the generative backend used for incident summaries.
type AIConfig struct {
	// Provider is "gemini" (default), "openai", or "" for none.
	Provider  string `mapstructure:"provider"       json:"provider"`
	GeminiKey string `mapstructure:"gemini_api_key" json:"gemini_api_key"`
	OpenAIKey string `mapstructure:"openai_api_key" json:"openai_api_key"`
	Model     string `mapstructure:"model"          json:"model"`
	// BaseURL overrides the OpenAI-compatible endpoint (proxies, Azure).
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// ClassifierConfig tunes the suspicion heuristics.
type ClassifierConfig struct {
	// ProtectedBranches are the branch names whose forced pushes get flagged.
	ProtectedBranches []string `mapstructure:"protected_branches" json:"protected_branches"`
	// LargePushCommits is the commit count above which a push is flagged.
	LargePushCommits int `mapstructure:"large_push_commits" json:"large_push_commits"`
}

// SummarizerConfig paces the summarization worker.
type SummarizerConfig struct {
	// BatchSize bounds how many unprocessed events one cycle drains.
	BatchSize int `mapstructure:"batch_size" json:"batch_size"`
	// ItemDelaySecs is the per-item rate limit toward the AI backend.
	ItemDelaySecs int `mapstructure:"item_delay_secs" json:"item_delay_secs"`
	// IdleDelaySecs is the sleep after a fully drained batch.
	IdleDelaySecs int `mapstructure:"idle_delay_secs" json:"idle_delay_secs"`
	// ErrorDelaySecs is the longer sleep after a cycle-level error.
	ErrorDelaySecs int `mapstructure:"error_delay_secs" json:"error_delay_secs"`
}

// GatewayConfig controls the HTTP server.
type GatewayConfig struct {
	// Port is the localhost HTTP port the gateway listens on (default: 7080).
	Port int `mapstructure:"port" json:"port"`
	// PingIntervalSecs is the SSE heartbeat cadence.
	PingIntervalSecs int `mapstructure:"ping_interval_secs" json:"ping_interval_secs"`
	// DigestCron is a robfig/cron expression for the periodic activity digest
	// ("@hourly", "0 9 * * *", ...). Empty disables the digest.
	DigestCron string `mapstructure:"digest_cron" json:"digest_cron"`
}

// NotifyConfig holds the outbound notification channels.
type NotifyConfig struct {
	Slack   SlackNotifyConfig   `mapstructure:"slack"   json:"slack"`
	Webhook WebhookNotifyConfig `mapstructure:"webhook" json:"webhook"`
}

// SlackNotifyConfig configures the Slack incoming-webhook channel.
type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
}

// WebhookNotifyConfig configures the generic HTTP webhook channel.
type WebhookNotifyConfig struct {
	URL string `mapstructure:"url" json:"url"`
	// Secret enables HMAC-SHA256 request signing when non-empty.
	Secret string `mapstructure:"secret" json:"secret"`
}
