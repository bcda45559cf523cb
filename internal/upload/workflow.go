// Package upload implements the single-file upload workflow: check the local
// file, open a session, resolve the destination, transfer with progress, and
// retry once when the service demands a wait.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"tg-upload/internal/logging"
)

// maxAttempts bounds the transfer to the original call plus one retry.
const maxAttempts = 2

const rateLimitHint = "Hint: This might be a temporary server-side limit. Try again later."

// Entity is a resolved destination.
type Entity struct {
	ID    int64
	Title string
	// Peer is the backend's own handle for the entity.
	Peer any
}

// SendRequest describes one transfer attempt.
type SendRequest struct {
	Entity        Entity
	Path          string
	Name          string
	Size          int64
	Caption       string
	ForceDocument bool
	Progress      ProgressFunc
}

// Session is an authenticated connection to the messaging service.
type Session interface {
	Resolve(ctx context.Context, dest Destination) (Entity, error)
	Send(ctx context.Context, req SendRequest) error
}

// Connector opens a session, runs fn with it and releases the session before
// returning, whatever fn returns.
type Connector interface {
	Connect(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Request is the input to Workflow.Upload. An empty Caption means no caption.
type Request struct {
	Destination   string
	Path          string
	Caption       string
	ForceDocument bool
}

// Options configures a Workflow. Zero values select console defaults.
type Options struct {
	Out      io.Writer
	Progress ProgressFunc
	Sleep    SleepFunc
}

// Workflow uploads one file per call.
type Workflow struct {
	connector Connector
	out       io.Writer
	progress  ProgressFunc
	sleep     SleepFunc
}

// NewWorkflow creates a Workflow using connector for every session.
func NewWorkflow(connector Connector, opts Options) *Workflow {
	w := &Workflow{
		connector: connector,
		out:       opts.Out,
		progress:  opts.Progress,
		sleep:     opts.Sleep,
	}
	if w.out == nil {
		w.out = os.Stdout
	}
	if w.progress == nil {
		w.progress = NewConsoleProgress(w.out).Report
	}
	if w.sleep == nil {
		w.sleep = sleepContext
	}
	return w
}

// Upload sends req.Path to req.Destination. Outcomes are written to the
// console; the returned error wraps ErrFileNotFound, ErrResolution,
// ErrTransfer or ErrSession.
func (w *Workflow) Upload(ctx context.Context, req Request) error {
	info, err := os.Stat(req.Path)
	if err != nil || info.IsDir() {
		fmt.Fprintf(w.out, "Error: File not found at %s\n", req.Path)
		return fmt.Errorf("%w: %s", ErrFileNotFound, req.Path)
	}

	dest, err := ParseDestination(req.Destination)
	if err != nil {
		fmt.Fprintf(w.out, "Error: Could not find entity '%s'. %v\n", req.Destination, err)
		return fmt.Errorf("%w: %w", ErrResolution, err)
	}

	fmt.Fprintln(w.out, "Connecting to Telegram...")

	var (
		ran    bool
		runErr error
	)
	err = w.connector.Connect(ctx, func(ctx context.Context, s Session) error {
		ran = true
		entity, err := w.resolve(ctx, s, dest)
		if err != nil {
			runErr = err
			return err
		}
		runErr = w.transfer(ctx, s, entity, req, info)
		return runErr
	})
	if !ran {
		if err == nil {
			err = errors.New("session closed before use")
		}
		fmt.Fprintf(w.out, "Error connecting to Telegram: %v\n", err)
		return fmt.Errorf("%w: %w", ErrSession, err)
	}
	if runErr == nil && err != nil {
		logging.Logf(logging.Warning, "Session shutdown reported: %v", err)
	}
	return runErr
}

func (w *Workflow) resolve(ctx context.Context, s Session, dest Destination) (Entity, error) {
	if dest.Numeric {
		logging.Logf(logging.Debug, "Resolving numeric destination %d", dest.ID)
	} else {
		logging.Logf(logging.Debug, "Resolving handle '%s'", dest.Handle)
	}

	entity, err := s.Resolve(ctx, dest)
	switch {
	case err == nil:
		fmt.Fprintf(w.out, "Resolved entity: %s (ID: %d)\n", entity.Title, entity.ID)
		return entity, nil
	case errors.Is(err, ErrEntityNotFound):
		fmt.Fprintf(w.out, "Error: Could not find entity '%s'. Ensure you are subscribed or have sent a message to it.\n", dest)
	default:
		fmt.Fprintf(w.out, "Error resolving entity: %v\n", err)
	}
	return Entity{}, fmt.Errorf("%w: %w", ErrResolution, err)
}

func (w *Workflow) transfer(ctx context.Context, s Session, entity Entity, req Request, info os.FileInfo) error {
	size := info.Size()
	fmt.Fprintf(w.out, "Uploading %s (%s) to %s...\n", req.Path, humanize.Bytes(uint64(size)), entity.Title)

	progress := newTracker(w.progress)
	send := SendRequest{
		Entity:        entity,
		Path:          req.Path,
		Name:          filepath.Base(req.Path),
		Size:          size,
		Caption:       req.Caption,
		ForceDocument: req.ForceDocument,
		Progress:      progress.report,
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			fmt.Fprintln(w.out, "Retrying upload...")
		}
		logging.Logf(logging.Debug, "Transfer attempt %d/%d of '%s'", attempt, maxAttempts, send.Name)
		err = s.Send(ctx, send)

		var rl *RateLimitError
		if err == nil || attempt == maxAttempts || !errors.As(err, &rl) {
			break
		}
		fmt.Fprintf(w.out, "\nRate limit exceeded. Waiting for %d seconds...\n", rl.Seconds())
		if sleepErr := w.sleep(ctx, rl.Wait); sleepErr != nil {
			fmt.Fprintln(w.out, "Upload cancelled while waiting for rate limit.")
			return fmt.Errorf("%w: %w", ErrTransfer, sleepErr)
		}
	}

	if err == nil {
		progress.finish(size)
		fmt.Fprintln(w.out, "\nUpload complete!")
		return nil
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w.out, "\nUpload cancelled.")
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	w.reportTransferError(err)
	return fmt.Errorf("%w: %w", ErrTransfer, err)
}

func (w *Workflow) reportTransferError(err error) {
	var (
		rl *RateLimitError
		re *RemoteError
	)
	switch {
	case errors.As(err, &rl):
		fmt.Fprintf(w.out, "\nTelegram RPC Error: %s (Code: %d)\n", rl.Message, rl.Code)
		fmt.Fprintln(w.out, rateLimitHint)
	case errors.As(err, &re):
		fmt.Fprintf(w.out, "\nTelegram RPC Error: %s (Code: %d)\n", re.Message, re.Code)
		if tooManyRequests(re.Message) {
			fmt.Fprintln(w.out, rateLimitHint)
		}
	default:
		fmt.Fprintf(w.out, "\nError uploading file: %s: %v\n", typeName(err), err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
