// Package util holds small helpers shared by the config layer.
package util

import (
	"os"
	"regexp"
)

var windowsVar = regexp.MustCompile(`%([A-Za-z0-9_]+)%`)

// ExpandEnvUniversal expands Unix-style ($VAR, ${VAR}) and then Windows-style
// (%VAR%) environment variables. Undefined variables expand to "".
func ExpandEnvUniversal(s string) string {
	unixExpanded := os.ExpandEnv(s)
	return windowsVar.ReplaceAllStringFunc(unixExpanded, func(match string) string {
		if value, ok := os.LookupEnv(match[1 : len(match)-1]); ok {
			return value
		}
		return ""
	})
}
