package build

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/opencontainers/go-digest"
)

const (

	// Tag applied to the tracker image.
	DefaultTag = "mlflow-tracker:v2.8.1"

	// Shared dependency list, relative to the build context.
	DefaultRequirements = "../requirements.txt"

	// Name of the staged copy inside the build context.
	DefaultStaged = "requirements.txt"

	// Dockerfile name inside the build context.
	DefaultDockerfile = "Dockerfile"
)

// Controls an image build.
type Options struct {
	Context      string            // Build context directory.
	Requirements string            // Dependency list to stage. Relative paths resolve against Context.
	Staged       string            // File name of the staged copy inside Context.
	Dockerfile   string            // Dockerfile path relative to Context.
	Tag          string            // Image tag.
	Proxy        Proxy             // Proxy settings forwarded as build arguments.
	Args         map[string]string // Additional build arguments.
	Labels       map[string]string // Additional image labels, applied last.
	Version      string            // Value of the OCI version label. Omitted when empty.
}

// Describes a build handed to a [Builder].
type Request struct {
	Context    io.Reader          // Tar stream of the build context.
	Dockerfile string             // Dockerfile path inside the context.
	Tags       []string           // Tags applied to the resulting image.
	Args       map[string]*string // Build arguments.
	Labels     map[string]string  // Image labels.
}

// An image produced by a [Builder].
type Image struct {
	ID   string // Engine image ID.
	Tag  string // Tag the image was built under.
	Size int64  // Image size in bytes, zero when unknown.
}

// Executes image builds against a container engine.
type Builder interface {
	Build(ctx context.Context, req *Request) (*Image, error)
}

// Returned after a successful build.
type Result struct {
	Image  *Image        // The built image.
	Staged string        // Path the dependency list was staged at (removed by now).
	Digest digest.Digest // Digest of the staged dependency list.
}

// Builds the tracker image.
//
// The dependency list is staged into the build context, the context is
// streamed to the builder with the proxy settings as build arguments, and
// the staged copy is removed whether or not the build succeeded. A failed
// build is returned as an error marked with [ErrBuild].
func Run(ctx context.Context, b Builder, opts Options) (*Result, error) {
	opts, err := withDefaults(opts)
	if err != nil {
		return nil, err
	}

	slog.Info("building image",
		"tag", opts.Tag,
		"context", opts.Context,
		"requirements", opts.Requirements,
	)

	staged, err := stage(opts.Requirements, filepath.Join(opts.Context, opts.Staged))
	if err != nil {
		return nil, err
	}
	defer staged.remove()

	tarball := archiveContext(opts.Context)
	defer tarball.Close()

	req := &Request{
		Context:    tarball,
		Dockerfile: opts.Dockerfile,
		Tags:       []string{opts.Tag},
		Args:       buildArgs(opts.Args, opts.Proxy),
		Labels:     labels(opts, staged.digest),
	}

	image, err := b.Build(ctx, req)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "build %s", opts.Tag), ErrBuild)
	}

	slog.Info("image built", "tag", opts.Tag, "id", image.ID)

	return &Result{
		Image:  image,
		Staged: staged.path,
		Digest: staged.digest,
	}, nil
}

// Fills unset options and resolves paths.
func withDefaults(opts Options) (Options, error) {
	if opts.Context == "" {
		opts.Context = "."
	}
	if opts.Requirements == "" {
		opts.Requirements = DefaultRequirements
	}
	if opts.Staged == "" {
		opts.Staged = DefaultStaged
	}
	if opts.Dockerfile == "" {
		opts.Dockerfile = DefaultDockerfile
	}
	if opts.Tag == "" {
		opts.Tag = DefaultTag
	}

	if filepath.Base(opts.Staged) != opts.Staged {
		return opts, errors.Wrapf(ErrInvalidOptions, "staged name %q must be a bare file name", opts.Staged)
	}

	abs, err := filepath.Abs(opts.Context)
	if err != nil {
		return opts, errors.Mark(err, ErrFileSystemOperation)
	}
	opts.Context = abs

	if !filepath.IsAbs(opts.Requirements) {
		opts.Requirements = filepath.Join(opts.Context, opts.Requirements)
	}
	opts.Requirements = filepath.Clean(opts.Requirements)

	if opts.Requirements == filepath.Join(opts.Context, opts.Staged) {
		return opts, errors.Wrapf(ErrInvalidOptions, "requirements %s is the staged path itself", opts.Requirements)
	}

	return opts, nil
}
