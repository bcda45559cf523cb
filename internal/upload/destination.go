package upload

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericDestination matches an integer with at most one leading minus sign.
var numericDestination = regexp.MustCompile(`^-?[0-9]+$`)

// validHandle matches a Telegram username after lowercasing: a leading
// letter, then letters, digits and single underscores, at most 32 chars.
var validHandle = regexp.MustCompile(`^[a-z](?:[a-z0-9]|_[a-z0-9]){0,31}$`)

// handlePrefixes are stripped from textual handles, longest first.
var handlePrefixes = []string{"https://t.me/", "http://t.me/", "t.me/", "@"}

// ErrEmptyDestination is returned by ParseDestination for blank input.
var ErrEmptyDestination = errors.New("destination is empty")

// Destination is a caller-supplied reference to a chat, group, channel or user.
// Exactly one of ID (when Numeric is true) or Handle is meaningful.
type Destination struct {
	Raw     string
	Numeric bool
	ID      int64
	Handle  string
}

// String returns the destination as the caller supplied it.
func (d Destination) String() string {
	return d.Raw
}

// ParseDestination classifies s as a numeric identifier or a textual handle.
func ParseDestination(s string) (Destination, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Destination{}, ErrEmptyDestination
	}

	if numericDestination.MatchString(raw) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Destination{}, fmt.Errorf("malformed numeric destination '%s': %w", raw, err)
		}
		return Destination{Raw: raw, Numeric: true, ID: id}, nil
	}

	handle := raw
	for _, prefix := range handlePrefixes {
		if strings.HasPrefix(strings.ToLower(handle), prefix) {
			handle = handle[len(prefix):]
			break
		}
	}
	handle = strings.TrimSuffix(handle, "/")
	if handle == "" {
		return Destination{}, fmt.Errorf("malformed destination '%s': no handle after prefix", raw)
	}
	handle = strings.ToLower(handle)
	if len(handle) > 32 || !validHandle.MatchString(handle) {
		return Destination{}, fmt.Errorf("malformed destination '%s': '%s' is not a valid username", raw, handle)
	}
	return Destination{Raw: raw, Handle: handle}, nil
}
