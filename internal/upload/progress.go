package upload

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"tg-upload/internal/logging"
)

// ProgressFunc receives the number of bytes sent so far and the total size.
type ProgressFunc func(sent, total int64)

// ConsoleProgress renders a percentage on a single, overwritten console line.
type ConsoleProgress struct {
	mu       sync.Mutex
	out      io.Writer
	lastTick int64
}

// NewConsoleProgress returns a renderer writing to out.
func NewConsoleProgress(out io.Writer) *ConsoleProgress {
	return &ConsoleProgress{out: out, lastTick: -1}
}

// Report draws the current percentage. Redraws are skipped while the value,
// at one decimal place, is unchanged.
func (p *ConsoleProgress) Report(sent, total int64) {
	if total <= 0 {
		return
	}
	if sent > total {
		sent = total
	}
	tick := sent * 1000 / total
	p.mu.Lock()
	defer p.mu.Unlock()
	if tick == p.lastTick {
		return
	}
	p.lastTick = tick
	fmt.Fprintf(p.out, "\rUploaded: %.1f%%", float64(tick)/10)
}

// tracker remembers the furthest point a transfer reached so a completed
// upload can be reported as 100% even when the transport's last chunk
// report was short of the total.
type tracker struct {
	fn   ProgressFunc
	sent atomic.Int64
}

func newTracker(fn ProgressFunc) *tracker {
	return &tracker{fn: safeProgress(fn)}
}

func (t *tracker) report(sent, total int64) {
	t.sent.Store(sent)
	t.fn(sent, total)
}

func (t *tracker) finish(total int64) {
	if t.sent.Load() < total {
		t.report(total, total)
	}
}

// safeProgress wraps fn so that a panicking callback never aborts a transfer.
func safeProgress(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(int64, int64) {}
	}
	return func(sent, total int64) {
		defer func() {
			if r := recover(); r != nil {
				logging.Logf(logging.Debug, "Progress callback panicked: %v", r)
			}
		}()
		fn(sent, total)
	}
}
