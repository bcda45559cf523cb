package config

// DefaultSessionFile is where the MTProto session is persisted between runs.
const DefaultSessionFile = "telegram_uploader_session.json"

// Environment variable names.
const (
	EnvAPIID       = "API_ID"
	EnvAPIHash     = "API_HASH"
	EnvPhone       = "PHONE_NUMBER"
	EnvSessionFile = "SESSION_FILE"
	EnvLogLevel    = "LOG_LEVEL"
)

// Config holds everything the uploader needs for one invocation.
type Config struct {
	Telegram   TelegramConfig `yaml:"telegram"`
	Logging    LoggingConfig  `yaml:"logging"`
	Upload     UploadConfig   `yaml:"upload"`
	StrictExit bool           `yaml:"strict_exit,omitempty"`
}

// TelegramConfig holds the account credentials and session location.
type TelegramConfig struct {
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	Phone       string `yaml:"phone"`
	SessionFile string `yaml:"session_file,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// UploadConfig holds transfer settings.
type UploadConfig struct {
	ForceDocument bool `yaml:"force_document,omitempty"`
}

// Options says where Load looks for configuration.
type Options struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string
	// ConfigRequired makes a missing ConfigFile an error.
	ConfigRequired bool
	// EnvFile is an optional dotenv file. A missing file is ignored.
	EnvFile string
}
