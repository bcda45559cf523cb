package upload

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Failure kinds reported by Workflow.Upload. Every failed upload wraps exactly one.
var (
	ErrFileNotFound = errors.New("file not found")
	ErrResolution   = errors.New("resolution error")
	ErrTransfer     = errors.New("transfer error")
	ErrSession      = errors.New("session error")
)

// ErrEntityNotFound is returned by a Session when a destination does not map
// to any chat the account can see.
var ErrEntityNotFound = errors.New("entity not found")

// RateLimitError is a remote demand to wait before retrying.
type RateLimitError struct {
	Wait    time.Duration
	Code    int
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited for %s: %s", e.Wait, e.Message)
}

// Seconds returns the wait rounded up to whole seconds.
func (e *RateLimitError) Seconds() int {
	s := int(e.Wait / time.Second)
	if e.Wait%time.Second != 0 {
		s++
	}
	return s
}

// RemoteError is any other rejection by the messaging service.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// tooManyRequests reports whether the error text describes a server-side cap
// that did not arrive as a structured rate-limit signal.
func tooManyRequests(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "too many requests")
}

// typeName returns the Go type name of the innermost wrapped error.
func typeName(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
