package config

import "time"

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"

	ClipboardBuffer   = "buffer"
	ClipboardTerminal = "terminal"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Live      LiveConfig      `yaml:"live"`
	Inbox     InboxConfig     `yaml:"inbox"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Set from command-line flags only.
	Console bool `yaml:"-"`
	Debug   bool `yaml:"-"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"SERVER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	AllowedOrigins  string        `yaml:"allowed_origins"  env:"SERVER_ALLOWED_ORIGINS"  env-default:"*"`
}

// GeminiConfig holds generative backend settings. An empty APIKey selects
// the offline gateway.
type GeminiConfig struct {
	APIKey       string        `yaml:"api_key"       env:"GEMINI_API_KEY"`
	Model        string        `yaml:"model"         env:"GEMINI_MODEL"         env-default:"gemini-2.5-flash"`
	OfflineDelay time.Duration `yaml:"offline_delay" env:"GEMINI_OFFLINE_DELAY" env-default:"1s"`
	NewsCacheTTL time.Duration `yaml:"news_cache_ttl" env:"GEMINI_NEWS_CACHE_TTL" env-default:"30m"`
}

// LiveConfig holds realtime voice session settings.
type LiveConfig struct {
	Model            string `yaml:"model"              env:"LIVE_MODEL"              env-default:"gemini-2.5-flash-native-audio-preview-09-2025"`
	Voice            string `yaml:"voice"              env:"LIVE_VOICE"              env-default:"Zephyr"`
	InputSampleRate  int    `yaml:"input_sample_rate"  env:"LIVE_INPUT_SAMPLE_RATE"  env-default:"16000"`
	OutputSampleRate int    `yaml:"output_sample_rate" env:"LIVE_OUTPUT_SAMPLE_RATE" env-default:"24000"`
	BlockSize        int    `yaml:"block_size"         env:"LIVE_BLOCK_SIZE"         env-default:"4096"`
}

// InboxConfig controls the simulated customer message feed.
type InboxConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay" env:"INBOX_INITIAL_DELAY" env-default:"1s"`
	Interval     time.Duration `yaml:"interval"      env:"INBOX_INTERVAL"      env-default:"10s"`
}

// CalendarConfig controls the simulated calendar backend.
type CalendarConfig struct {
	Delay        time.Duration `yaml:"delay"        env:"CALENDAR_DELAY"        env-default:"700ms"`
	Availability float64       `yaml:"availability" env:"CALENDAR_AVAILABILITY" env-default:"0.7"`
}

// ClipboardConfig controls the transient copy status. The terminal target
// also pushes copied text to the terminal running the server.
type ClipboardConfig struct {
	ResetAfter time.Duration `yaml:"reset_after" env:"CLIPBOARD_RESET_AFTER" env-default:"2s"`
	Target     string        `yaml:"target"      env:"CLIPBOARD_TARGET"      env-default:"buffer"`
}

// StorageConfig selects where quick responses, history and chat sessions live.
type StorageConfig struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"memory"`
	DSN     string `yaml:"dsn"     env:"STORAGE_DSN"     env-default:"file:replydesk?mode=memory&cache=shared"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	Dir    string `yaml:"dir"    env:"LOG_DIR"    env-default:"logs"`
	Stderr bool   `yaml:"stderr" env:"LOG_STDERR" env-default:"false"`
}

// TelemetryConfig toggles the OpenTelemetry file exporters.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled"         env:"TELEMETRY_ENABLED"         env-default:"true"`
	MetricInterval time.Duration `yaml:"metric_interval" env:"TELEMETRY_METRIC_INTERVAL" env-default:"10s"`
}
