package tracker

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cruciblehq/harness/internal/build"
	"github.com/cruciblehq/harness/internal/paths"
	"github.com/cruciblehq/harness/internal/runtime"
)

// Default container ID of the tracker.
const DefaultID = "mlflow-tracker"

// Writes an image archive.
type Saver interface {
	Save(ctx context.Context, tag string, w io.Writer) error
}

// Imports archives and starts containers.
type Runtime interface {
	ImportImage(ctx context.Context, path, tag string) error
	StartFromTag(ctx context.Context, tag, id string, env []string) (*runtime.Container, error)
}

// Controls a tracker start.
type Options struct {
	Tag      string      // Image tag. Defaults to [build.DefaultTag].
	ID       string      // Container ID. Defaults to [DefaultID].
	Proxy    build.Proxy // Proxy settings passed to the container environment.
	CacheDir string      // Directory for exported archives. Defaults to [paths.Images].
}

// Exports the image from the engine and runs it under containerd.
//
// The archive is written to the cache directory, imported under the same
// tag, and a container is started with the proxy environment.
func Start(ctx context.Context, s Saver, rt Runtime, opts Options) (*runtime.Container, error) {
	opts = withDefaults(opts)

	archive, err := Export(ctx, s, opts.Tag, opts.CacheDir)
	if err != nil {
		return nil, err
	}

	if err := rt.ImportImage(ctx, archive, opts.Tag); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "import %s", opts.Tag), ErrTracker)
	}

	ctr, err := rt.StartFromTag(ctx, opts.Tag, opts.ID, Environ(opts.Proxy))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "start %s", opts.ID), ErrTracker)
	}

	slog.Info("tracker started", "id", opts.ID, "image", opts.Tag)
	return ctr, nil
}

// Saves tag into dir and returns the archive path.
//
// The archive is written to a temporary file in dir and renamed into place,
// so a failed export never leaves a truncated archive behind under the
// final name.
func Export(ctx context.Context, s Saver, tag, dir string) (string, error) {
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return "", errors.Mark(err, ErrTracker)
	}

	dest := paths.Archive(dir, tag)

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.partial")
	if err != nil {
		return "", errors.Mark(err, ErrTracker)
	}
	defer os.Remove(tmp.Name())

	if err := s.Save(ctx, tag, tmp); err != nil {
		tmp.Close()
		return "", errors.Mark(errors.Wrapf(err, "export %s", tag), ErrTracker)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Mark(err, ErrTracker)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", errors.Mark(err, ErrTracker)
	}

	slog.Debug("image exported", "tag", tag, "path", dest)
	return dest, nil
}

// Formats proxy settings as container environment entries.
//
// Unset values are left out so the image defaults apply. Each value is set
// under both the lowercase and uppercase name, since Python tooling inside
// the tracker reads either.
func Environ(p build.Proxy) []string {
	var env []string
	for _, kv := range [][2]string{
		{"http_proxy", p.HTTP},
		{"https_proxy", p.HTTPS},
		{"no_proxy", p.NoProxy},
	} {
		if kv[1] == "" {
			continue
		}
		env = append(env, kv[0]+"="+kv[1], strings.ToUpper(kv[0])+"="+kv[1])
	}
	return env
}

func withDefaults(opts Options) Options {
	if opts.Tag == "" {
		opts.Tag = build.DefaultTag
	}
	if opts.ID == "" {
		opts.ID = DefaultID
	}
	if opts.CacheDir == "" {
		opts.CacheDir = paths.Images()
	}
	return opts
}
