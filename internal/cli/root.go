package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cruciblehq/harness/internal"
	"github.com/cruciblehq/harness/internal/build"
	"github.com/cruciblehq/harness/internal/runtime"
	"github.com/cruciblehq/harness/internal/tracker"
)

// Represents the root command for harness.
type Root struct {
	Quiet   bool       `short:"q" help:"Suppress informational output."`
	Verbose bool       `short:"v" help:"Enable verbose output."`
	Debug   bool       `short:"d" help:"Enable debug output."`
	Build   BuildCmd   `cmd:"" help:"Build the tracker image."`
	Recipe  RecipeCmd  `cmd:"" help:"Inspect and apply training recipes."`
	Tracker TrackerCmd `cmd:"" help:"Run the tracker under containerd."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parsed command line of the running process.
var RootCmd Root

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	parser, err := newParser(&RootCmd, ctx)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	configureLogger()
	logStartup(slog.Default())

	return kongCtx.Run()
}

// Records build identity and process details in debug mode.
func logStartup(logger *slog.Logger) {
	if !internal.IsDebug() {
		return
	}

	logger.Debug("build", "version", internal.VersionString())
	logger.Debug("harness is running",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}

// Creates the kong parser for root.
func newParser(root *Root, ctx context.Context) (*kong.Kong, error) {
	return kong.New(root,
		kong.Name(internal.Name),
		kong.Description("Builds the experiment tracker image and manages training recipes."),
		kong.UsageOnError(),
		kong.Vars{
			"version":              internal.VersionString(),
			"default_tag":          build.DefaultTag,
			"default_requirements": build.DefaultRequirements,
			"default_dockerfile":   build.DefaultDockerfile,
			"default_id":           tracker.DefaultID,
			"default_address":      runtime.DefaultAddress,
			"default_namespace":    runtime.DefaultNamespace,
			"default_snapshotter":  runtime.DefaultSnapshotter,
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
}

// Applies the logging flags and reinstalls the default logger.
//
// Flags can only raise what the linker defaults enable.
func configureLogger() {
	debug, quiet, verbose := internal.Defaults()

	internal.Configure(
		RootCmd.Debug || debug,
		RootCmd.Quiet || quiet,
		RootCmd.Verbose || verbose,
	)

	slog.SetDefault(NewLogger(os.Stderr))
}

// Creates a logger writing to w at the shared level.
//
// Terminals get text records; anything else gets JSON, one record per line.
// Records carry source locations in verbose mode.
func NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     internal.LogLevel,
		AddSource: internal.IsVerbose(),
	}

	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isatty(f) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Whether the given file is an interactive terminal.
func isatty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
