package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/cruciblehq/harness/internal/build"
	"github.com/cruciblehq/harness/internal/docker"
	"github.com/cruciblehq/harness/internal/runtime"
	"github.com/cruciblehq/harness/internal/tracker"
)

// Represents the 'harness tracker' command group.
type TrackerCmd struct {
	Address     string `default:"${default_address}" help:"Containerd socket address." placeholder:"PATH"`
	Namespace   string `default:"${default_namespace}" help:"Containerd namespace."`
	Snapshotter string `default:"${default_snapshotter}" help:"Snapshotter for container filesystems."`
	ID          string `default:"${default_id}" help:"Tracker container ID."`

	Start   TrackerStartCmd   `cmd:"" help:"Export the tracker image from Docker and start it."`
	Stop    TrackerStopCmd    `cmd:"" help:"Stop the tracker task."`
	Status  TrackerStatusCmd  `cmd:"" help:"Show the tracker state."`
	Exec    TrackerExecCmd    `cmd:"" help:"Run a command inside the tracker."`
	Destroy TrackerDestroyCmd `cmd:"" help:"Remove the tracker container."`
}

// Connects to containerd with the group's flags.
func (c *TrackerCmd) connect() (*runtime.Runtime, error) {
	return runtime.New(c.Address, c.Namespace, c.Snapshotter)
}

// Represents the 'harness tracker start' command.
type TrackerStartCmd struct {
	Tag        string `short:"t" default:"${default_tag}" help:"Image tag to export and run."`
	HTTPProxy  string `name:"http-proxy" env:"http_proxy" help:"Set as http_proxy in the container." placeholder:"URL"`
	HTTPSProxy string `name:"https-proxy" env:"https_proxy" help:"Set as https_proxy in the container." placeholder:"URL"`
	NoProxy    string `name:"no-proxy" env:"no_proxy" help:"Set as no_proxy in the container." placeholder:"HOSTS"`
}

// Executes the start command.
func (c *TrackerStartCmd) Run(ctx context.Context) error {
	engine, err := docker.New()
	if err != nil {
		return err
	}
	defer engine.Close()

	rt, err := RootCmd.Tracker.connect()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctr, err := tracker.Start(ctx, engine, rt, c.options())
	if err != nil {
		return err
	}

	fmt.Println(ctr.ID())
	return nil
}

func (c *TrackerStartCmd) options() tracker.Options {
	return tracker.Options{
		Tag: c.Tag,
		ID:  RootCmd.Tracker.ID,
		Proxy: build.Proxy{
			HTTP:    c.HTTPProxy,
			HTTPS:   c.HTTPSProxy,
			NoProxy: c.NoProxy,
		},
	}
}

// Represents the 'harness tracker stop' command.
type TrackerStopCmd struct{}

// Executes the stop command.
func (c *TrackerStopCmd) Run(ctx context.Context) error {
	rt, err := RootCmd.Tracker.connect()
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.Container(RootCmd.Tracker.ID).Stop(ctx)
}

// Represents the 'harness tracker status' command.
type TrackerStatusCmd struct{}

// Executes the status command.
func (c *TrackerStatusCmd) Run(ctx context.Context) error {
	rt, err := RootCmd.Tracker.connect()
	if err != nil {
		return err
	}
	defer rt.Close()

	state, err := rt.Container(RootCmd.Tracker.ID).Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", RootCmd.Tracker.ID, state)
	return nil
}

// Represents the 'harness tracker exec' command.
type TrackerExecCmd struct {
	Env  []string `short:"e" help:"Environment entry for the process." placeholder:"KEY=VALUE"`
	Args []string `arg:"" passthrough:"" help:"Command and arguments."`
}

// Executes the exec command.
//
// The process output is copied to the matching streams. A non-zero exit
// code fails the command.
func (c *TrackerExecCmd) Run(ctx context.Context) error {
	rt, err := RootCmd.Tracker.connect()
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.Container(RootCmd.Tracker.ID).Exec(ctx, c.Args, c.Env)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, result.Stdout)
	fmt.Fprint(os.Stderr, result.Stderr)

	if result.ExitCode != 0 {
		return errors.Newf("%s exited with status %d", c.Args[0], result.ExitCode)
	}
	return nil
}

// Represents the 'harness tracker destroy' command.
type TrackerDestroyCmd struct {
	Image bool   `help:"Also remove the imported image."`
	Tag   string `short:"t" default:"${default_tag}" help:"Image tag removed with --image."`
}

// Executes the destroy command.
func (c *TrackerDestroyCmd) Run(ctx context.Context) error {
	rt, err := RootCmd.Tracker.connect()
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Container(RootCmd.Tracker.ID).Destroy(ctx)

	if c.Image {
		return rt.DestroyImage(ctx, c.Tag)
	}
	return nil
}
