package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/cruciblehq/harness/internal"
	"github.com/cruciblehq/harness/internal/build"
	"github.com/cruciblehq/harness/internal/docker"
)

// Represents the 'harness build' command.
type BuildCmd struct {
	Context      string   `arg:"" optional:"" default:"." type:"existingdir" help:"Build context directory."`
	Requirements string   `short:"r" default:"${default_requirements}" help:"Dependency list to stage, relative to the context." placeholder:"PATH"`
	Dockerfile   string   `short:"f" default:"${default_dockerfile}" help:"Dockerfile path inside the context." placeholder:"PATH"`
	Tag          string   `short:"t" default:"${default_tag}" help:"Image tag."`
	HTTPProxy    string   `name:"http-proxy" env:"http_proxy" help:"Forwarded as the http_proxy build argument." placeholder:"URL"`
	HTTPSProxy   string   `name:"https-proxy" env:"https_proxy" help:"Forwarded as the https_proxy build argument." placeholder:"URL"`
	NoProxy      string   `name:"no-proxy" env:"no_proxy" help:"Forwarded as the no_proxy build argument." placeholder:"HOSTS"`
	BuildArg     []string `name:"build-arg" help:"Additional build argument." placeholder:"KEY=VALUE"`
	Label        []string `name:"label" help:"Additional image label." placeholder:"KEY=VALUE"`
}

// Executes the build command.
//
// The staged dependency list is removed before returning, also when the
// build fails. A failed build yields a non-zero exit status.
func (c *BuildCmd) Run(ctx context.Context) error {
	var progress io.Writer = os.Stderr
	if internal.IsQuiet() {
		progress = io.Discard
	}

	engine, err := docker.New(docker.WithProgress(progress))
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := build.Run(ctx, engine, c.options())
	if err != nil {
		return err
	}

	fmt.Printf("%s %s (%s)\n", result.Image.Tag, result.Image.ID, humanize.Bytes(uint64(result.Image.Size)))
	fmt.Printf("requirements %s\n", result.Digest)
	return nil
}

// Translates the flags into build options.
func (c *BuildCmd) options() build.Options {
	opts := build.Options{
		Context:      c.Context,
		Requirements: c.Requirements,
		Dockerfile:   c.Dockerfile,
		Tag:          c.Tag,
		Proxy:        c.proxy(),
		Args:         build.ParseArgs(c.BuildArg),
		Labels:       build.ParseArgs(c.Label),
	}
	if !internal.IsLocal() {
		opts.Version = internal.Version()
	}
	return opts
}

func (c *BuildCmd) proxy() build.Proxy {
	return build.Proxy{
		HTTP:    c.HTTPProxy,
		HTTPS:   c.HTTPSProxy,
		NoProxy: c.NoProxy,
	}
}
