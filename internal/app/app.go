package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tg-upload/internal/config"
	"tg-upload/internal/logging"
	"tg-upload/internal/telegram"
	"tg-upload/internal/upload"
)

// Define common errors for the application layer.
var (
	ErrUsage        = errors.New("usage error")
	ErrMissingArgs  = errors.New("missing required arguments")
	ErrUploadFailed = errors.New("upload failed")
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

// negativeID matches positionals such as -100555 that the flag package
// would otherwise treat as unknown flags.
var negativeID = regexp.MustCompile(`^-[0-9]+$`)

// RunEnv carries per-invocation values into the uploader factory.
type RunEnv struct {
	LogLevel int
	RunID    string
	Stdin    io.Reader
	Stdout   io.Writer
}

// --- Interfaces for Testability ---

type configLoader interface {
	Load(opts config.Options) (*config.Config, error)
}

type uploader interface {
	Upload(ctx context.Context, req upload.Request) error
}

type uploaderFactory interface {
	New(cfg *config.Config, env RunEnv) uploader
}

// --- Default Implementations ---

type defaultConfigLoader struct{}

func (l *defaultConfigLoader) Load(opts config.Options) (*config.Config, error) {
	return config.Load(opts)
}

type defaultUploaderFactory struct{}

// New wires the MTProto backend into an upload workflow.
func (f *defaultUploaderFactory) New(cfg *config.Config, env RunEnv) uploader {
	transportLog := logging.Zap(env.LogLevel).With(zap.String("run", env.RunID))
	authenticator := telegram.NewTerminalAuth(cfg.Telegram.Phone, env.Stdin, env.Stdout)
	connector := telegram.NewConnector(cfg.Telegram, authenticator, transportLog)
	return upload.NewWorkflow(connector, upload.Options{Out: env.Stdout})
}

// --- AppRunner ---

// AppRunner encapsulates argument handling, configuration and exit policy.
type AppRunner struct {
	configLoader    configLoader
	uploaderFactory uploaderFactory
	stdin           io.Reader
	stdout          io.Writer
	stderr          io.Writer
}

// AppRunnerOpts allows configuring the AppRunner's dependencies. Nil fields
// select the real implementations and the process's standard streams.
type AppRunnerOpts struct {
	ConfigLoader    configLoader
	UploaderFactory uploaderFactory
	Stdin           io.Reader
	Stdout          io.Writer
	Stderr          io.Writer
}

// NewAppRunner creates a new instance of the application runner with default dependencies.
func NewAppRunner() *AppRunner {
	return NewAppRunnerWithOpts(AppRunnerOpts{})
}

// NewAppRunnerWithOpts creates a new AppRunner allowing dependency injection.
func NewAppRunnerWithOpts(opts AppRunnerOpts) *AppRunner {
	a := &AppRunner{
		configLoader:    opts.ConfigLoader,
		uploaderFactory: opts.UploaderFactory,
		stdin:           opts.Stdin,
		stdout:          opts.Stdout,
		stderr:          opts.Stderr,
	}
	if a.configLoader == nil {
		a.configLoader = &defaultConfigLoader{}
	}
	if a.uploaderFactory == nil {
		a.uploaderFactory = &defaultUploaderFactory{}
	}
	if a.stdin == nil {
		a.stdin = os.Stdin
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	return a
}

// usageText defines the command-line help information.
const usageText = `Usage:
  tg-upload [options] <destination> <file> [caption]

Arguments:
  destination   Channel, group or user: a handle (mychannel, @mychannel,
                t.me/mychannel) or a numeric ID (12345, -100555)
  file          Path of the local file to upload
  caption       Optional caption attached to the file

Options:
  -config string
        YAML configuration file (default "config.yaml", optional)
  -env string
        dotenv file with API_ID, API_HASH, PHONE_NUMBER (default ".env")
  -session string
        Session file, overrides SESSION_FILE and telegram.session_file
  -loglevel string
        Logging level (none, error, warn, info, debug)
  -document
        Always send as a document, never as a photo
  -strict
        Exit with status 1 when the upload fails
  -help
        Show help

Examples:
  tg-upload mychannel ./report.pdf "Weekly report"
  tg-upload -strict -loglevel=debug -100555 ./photo.jpg
`

// Usage prints the command-line help information to the specified writer.
func (a *AppRunner) Usage(writer io.Writer) {
	fmt.Fprint(writer, usageText)
}

// Run parses args, loads configuration and performs one upload. Upload
// failures are reported on the console and only returned in strict mode.
func (a *AppRunner) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tg-upload", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configFile := fs.String("config", "", "YAML configuration file")
	envFile := fs.String("env", defaultEnvFile, "dotenv file")
	sessionFile := fs.String("session", "", "Session file")
	logLevelStr := fs.String("loglevel", "", "Logging level (none, error, warn, info, debug)")
	forceDocument := fs.Bool("document", false, "Always send as a document")
	strict := fs.Bool("strict", false, "Exit non-zero when the upload fails")
	helpFlag := fs.Bool("help", false, "Show help")

	if err := fs.Parse(protectNegativeIDs(fs, args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			a.Usage(a.stderr)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *helpFlag {
		a.Usage(a.stderr)
		return nil
	}

	positional := fs.Args()
	if len(positional) < 2 {
		return ErrMissingArgs
	}
	if strings.TrimSpace(positional[0]) == "" {
		return fmt.Errorf("%w: destination must not be empty", ErrUsage)
	}
	if len(positional) > 3 {
		logging.Logf(logging.Warning, "Ignoring extra arguments %q; quote the caption if it contains spaces", positional[3:])
	}

	if isFlagSet(fs, "loglevel") {
		logging.SetupLogging(*logLevelStr)
	}

	loadOpts := config.Options{ConfigFile: *configFile, ConfigRequired: true, EnvFile: *envFile}
	if !isFlagSet(fs, "config") {
		loadOpts.ConfigFile, loadOpts.ConfigRequired = defaultConfigFile, false
	}
	cfg, err := a.configLoader.Load(loadOpts)
	if err != nil {
		return err
	}

	logLevel := logging.GetLevel()
	if !isFlagSet(fs, "loglevel") {
		logLevel = logging.SetupLogging(cfg.Logging.Level)
	}
	if *sessionFile != "" {
		cfg.Telegram.SessionFile = *sessionFile
	}

	req := upload.Request{
		Destination:   positional[0],
		Path:          positional[1],
		ForceDocument: cfg.Upload.ForceDocument || *forceDocument,
	}
	if len(positional) > 2 {
		req.Caption = positional[2]
	}

	runID := uuid.NewString()
	logging.Logf(logging.Debug, "Run %s: '%s' -> '%s' (session '%s')", runID, req.Path, req.Destination, cfg.Telegram.SessionFile)

	u := a.uploaderFactory.New(cfg, RunEnv{LogLevel: logLevel, RunID: runID, Stdin: a.stdin, Stdout: a.stdout})
	if err := u.Upload(ctx, req); err != nil {
		if *strict || cfg.StrictExit {
			return fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		logging.Logf(logging.Debug, "Run %s failed, exit status unaffected: %v", runID, err)
	}
	return nil
}

// protectNegativeIDs inserts "--" before the first positional that looks
// like a negative number so that flag parsing stops there.
func protectNegativeIDs(fs *flag.FlagSet, args []string) []string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || arg == "-" || !strings.HasPrefix(arg, "-") {
			return args
		}
		if negativeID.MatchString(arg) {
			protected := make([]string, 0, len(args)+1)
			protected = append(protected, args[:i]...)
			protected = append(protected, "--")
			return append(protected, args[i:]...)
		}
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f) {
			i++ // skip the flag's value
		}
	}
	return args
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// Helper to check if a specific flag was set
func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
