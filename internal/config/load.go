package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tg-upload/internal/util"
)

// ErrConfigNotFound is returned when a required config file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load builds a Config from, in increasing precedence, the YAML file, the
// dotenv file and the process environment, then validates it.
func Load(opts Options) (*Config, error) {
	var cfg Config

	if opts.ConfigFile != "" {
		if err := readYAML(opts.ConfigFile, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) || opts.ConfigRequired {
				return nil, err
			}
		}
	}

	dotenv := map[string]string{}
	if opts.EnvFile != "" {
		values, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to parse env file '%s': %w", opts.EnvFile, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	var problems []string
	if v, ok := lookup(EnvAPIID); ok {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, fmt.Sprintf("- %s: must be an integer, got '%s'", EnvAPIID, v))
		} else {
			cfg.Telegram.APIID = id
		}
	}
	if v, ok := lookup(EnvAPIHash); ok {
		cfg.Telegram.APIHash = v
	}
	if v, ok := lookup(EnvPhone); ok {
		cfg.Telegram.Phone = v
	}
	if v, ok := lookup(EnvSessionFile); ok {
		cfg.Telegram.SessionFile = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}

	// --- Defaults ---
	if cfg.Telegram.SessionFile == "" {
		cfg.Telegram.SessionFile = DefaultSessionFile
	}
	cfg.Telegram.SessionFile = util.ExpandEnvUniversal(cfg.Telegram.SessionFile)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if err := validate(&cfg, problems); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readYAML(filename string, cfg *Config) error {
	fileBytes, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: '%s': %w", ErrConfigNotFound, filename, err)
		}
		return fmt.Errorf("failed to read config file '%s': %w", filename, err)
	}
	if err := yaml.Unmarshal(fileBytes, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML in '%s': %w", filename, err)
	}
	return nil
}
