package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownLogLevels = []string{"none", "error", "warn", "warning", "info", "debug"}

// Validation errors. Both are fatal at startup.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidConfig      = errors.New("configuration validation failed")
)

// validate checks a fully assembled Config. problems carries issues found
// while reading raw values, such as an unparsable API_ID.
func validate(cfg *Config, problems []string) error {
	var missing []string
	// An unparsable API_ID is reported as a problem, not as missing.
	if cfg.Telegram.APIID == 0 && !hasProblem(problems, EnvAPIID) {
		missing = append(missing, EnvAPIID)
	}
	if strings.TrimSpace(cfg.Telegram.APIHash) == "" {
		missing = append(missing, EnvAPIHash)
	}
	if strings.TrimSpace(cfg.Telegram.Phone) == "" {
		missing = append(missing, EnvPhone)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (%s): API_ID, API_HASH, and PHONE_NUMBER must be set in the .env file or environment variables",
			ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if cfg.Telegram.APIID < 0 {
		problems = append(problems, fmt.Sprintf("- %s: must be positive, got %d", EnvAPIID, cfg.Telegram.APIID))
	}
	if !isKnownLevel(cfg.Logging.Level) {
		problems = append(problems, fmt.Sprintf("- Logging.Level: invalid log level '%s', must be one of %v", cfg.Logging.Level, knownLogLevels))
	}
	if strings.TrimSpace(cfg.Telegram.SessionFile) == "" {
		problems = append(problems, "- Telegram.SessionFile: is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n%s", ErrInvalidConfig, strings.Join(problems, "\n"))
	}
	return nil
}

func hasProblem(problems []string, key string) bool {
	for _, p := range problems {
		if strings.HasPrefix(p, "- "+key+":") {
			return true
		}
	}
	return false
}

func isKnownLevel(level string) bool {
	for _, known := range knownLogLevels {
		if strings.EqualFold(strings.TrimSpace(level), known) {
			return true
		}
	}
	return false
}
