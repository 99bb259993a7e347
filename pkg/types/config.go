package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-trends/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxTokens caps the model's response length (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FetchConfig holds settings for the arXiv fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Topics lists the arXiv filter expressions OR-ed together in the
	// search query (e.g. "cat:cs.CL", "all:transformer").
	Topics []string `json:"topics" yaml:"topics" mapstructure:"topics"`

	// TopicsFile optionally names a YAML file whose topic list replaces
	// Topics when present.
	TopicsFile string `json:"topics_file,omitempty" yaml:"topics_file,omitempty" mapstructure:"topics_file"`

	// WindowDays is the trailing submission window in days (default 7).
	WindowDays int `json:"window_days" yaml:"window_days" mapstructure:"window_days"`

	// MaxResults is the maximum number of feed entries requested (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// StorageConfig holds settings for the SQLite store.
type StorageConfig struct {
	// DBPath is the SQLite database file path (default "arxiv-trends.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// ReportConfig holds settings for report rendering.
type ReportConfig struct {
	// OutputDir is where the report command writes .md/.html artifacts
	// when asked to export (default "output/reports").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// MailConfig holds SMTP delivery settings. An empty Host disables delivery:
// reports still render and persist, they just never leave the machine.
type MailConfig struct {
	// Host is the SMTP server hostname.
	Host string `json:"host,omitempty" yaml:"host,omitempty" mapstructure:"host"`

	// Port is the SMTP submission port (default 587).
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	// Username authenticates against the SMTP server.
	Username string `json:"username,omitempty" yaml:"username,omitempty" mapstructure:"username"`

	// Password authenticates against the SMTP server.
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`

	// From is the sender address.
	From string `json:"from,omitempty" yaml:"from,omitempty" mapstructure:"from"`

	// To lists the recipient addresses.
	To []string `json:"to,omitempty" yaml:"to,omitempty" mapstructure:"to"`

	// Timeout bounds the SMTP dial and send (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ServerConfig holds settings for the HTTP query API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// AllowedOrigins lists CORS origins permitted to call the API.
	// Empty means same-origin only.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty" mapstructure:"allowed_origins"`
}

// SchedulerConfig holds settings for the periodic pipeline trigger.
type SchedulerConfig struct {
	// Cron is a standard five-field cron expression. Empty disables the
	// scheduler.
	Cron string `json:"cron,omitempty" yaml:"cron,omitempty" mapstructure:"cron"`
}

// LoggingConfig holds settings for structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all stage configurations for the pipeline.
type Config struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Classify  AIConfig        `json:"classify" yaml:"classify" mapstructure:"classify"`
	Storage   StorageConfig   `json:"storage" yaml:"storage" mapstructure:"storage"`
	Report    ReportConfig    `json:"report" yaml:"report" mapstructure:"report"`
	Mail      MailConfig      `json:"mail" yaml:"mail" mapstructure:"mail"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`
}
