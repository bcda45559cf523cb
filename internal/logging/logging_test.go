package logging

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// Helper to capture log output
func captureLogOutput(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
	}()
	fn()
	return buf.String()
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		inputStr      string
		expectedLevel int
		expectError   bool
	}{
		{"none", None, false},
		{"error", Error, false},
		{"WARN", Warning, false},
		{"warning", Warning, false},
		{"info", Info, false},
		{" debug ", Debug, false},
		{"DEBUG", Debug, false},
		{"", Info, true},
		{"verbose", Info, true},
	}
	for _, tc := range testCases {
		t.Run(tc.inputStr, func(t *testing.T) {
			level, err := ParseLevel(tc.inputStr)
			assert.Equal(t, tc.expectedLevel, level)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	originalLevel := GetLevel()
	defer SetLevel(originalLevel)

	t.Run("Valid", func(t *testing.T) {
		assert.Equal(t, Debug, SetupLogging("debug"))
		assert.Equal(t, Debug, GetLevel())
	})

	t.Run("Invalid Falls Back To Info", func(t *testing.T) {
		SetLevel(Warning)
		var level int
		output := captureLogOutput(t, func() {
			level = SetupLogging("chatty")
		})
		assert.Equal(t, Info, level)
		assert.Equal(t, Info, GetLevel())
		assert.Contains(t, output, "[WARN]  Invalid log level 'chatty' provided")
	})
}

func TestLogfOutput(t *testing.T) {
	originalLevel := GetLevel()
	defer SetLevel(originalLevel)

	testCases := []struct {
		name           string
		setLevel       int
		logCallLevel   int
		expectOutput   bool
		expectedPrefix string
	}{
		{"DebugAtDebug", Debug, Debug, true, "[DEBUG] "},
		{"InfoAtDebug", Debug, Info, true, "[INFO]  "},
		{"DebugAtInfo", Info, Debug, false, ""},
		{"WarnAtInfo", Info, Warning, true, "[WARN]  "},
		{"ErrorAtWarning", Warning, Error, true, "[ERROR] "},
		{"InfoAtWarning", Warning, Info, false, ""},
		{"ErrorAtNone", None, Error, false, ""},
		{"NoneAtDebug", Debug, None, false, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			SetLevel(tc.setLevel)
			output := captureLogOutput(t, func() {
				Logf(tc.logCallLevel, "uploaded %d parts", 3)
			})
			if tc.expectOutput {
				require.NotEmpty(t, output)
				assert.Equal(t, tc.expectedPrefix+fmt.Sprintf("uploaded %d parts", 3), strings.TrimSpace(output))
			} else {
				assert.Empty(t, output)
			}
		})
	}
}

func TestZap(t *testing.T) {
	testCases := []struct {
		name    string
		level   int
		enabled []zapcore.Level
		silent  []zapcore.Level
	}{
		{"None", None, nil, []zapcore.Level{zapcore.DebugLevel, zapcore.ErrorLevel}},
		{"Error", Error, []zapcore.Level{zapcore.ErrorLevel}, []zapcore.Level{zapcore.WarnLevel}},
		{"Info", Info, []zapcore.Level{zapcore.WarnLevel}, []zapcore.Level{zapcore.InfoLevel}},
		{"Debug", Debug, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			core := Zap(tc.level).Core()
			for _, lvl := range tc.enabled {
				assert.True(t, core.Enabled(lvl), "expected %s enabled", lvl)
			}
			for _, lvl := range tc.silent {
				assert.False(t, core.Enabled(lvl), "expected %s disabled", lvl)
			}
		})
	}
}
