package util

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvUniversal(t *testing.T) {
	t.Setenv("HOME_DIR", "/home/uploader")
	t.Setenv("APPDATA", `C:\Users\uploader\AppData`)
	os.Unsetenv("UNDEFINED_VAR")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"No Vars", "session.json", "session.json"},
		{"Unix Var Simple", "$HOME_DIR/session.json", "/home/uploader/session.json"},
		{"Unix Var Brace", "${HOME_DIR}/tg/session.json", "/home/uploader/tg/session.json"},
		{"Windows Var", `%APPDATA%\session.json`, `C:\Users\uploader\AppData\session.json`},
		{"Undefined Unix Var", "$UNDEFINED_VAR/s.json", "/s.json"},
		{"Undefined Windows Var", "%UNDEFINED_VAR%s.json", "s.json"},
		{"Percent Sign Not Var", "50% done", "50% done"},
		{"Empty Input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandEnvUniversal(tt.input))
		})
	}
}
