package docker

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/dustin/go-humanize"

	"github.com/cruciblehq/harness/internal/build"
)

// Talks to the Docker engine.
//
// Client implements [build.Builder].
type Client struct {
	api      *client.Client // Engine API client.
	progress io.Writer      // Destination for build progress output.
	apiOpts  []client.Opt   // Applied after the environment defaults.
}

// Configures a [Client].
type Option func(*Client)

// Sends build progress to w instead of stderr. A nil writer discards it.
func WithProgress(w io.Writer) Option {
	return func(c *Client) {
		if w == nil {
			w = io.Discard
		}
		c.progress = w
	}
}

// Overrides engine client settings such as the host.
func withAPIOptions(opts ...client.Opt) Option {
	return func(c *Client) {
		c.apiOpts = append(c.apiOpts, opts...)
	}
}

// Creates a client from the standard environment (DOCKER_HOST,
// DOCKER_CERT_PATH, DOCKER_TLS_VERIFY) with API version negotiation.
func New(opts ...Option) (*Client, error) {
	c := &Client{progress: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}

	apiOpts := append([]client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}, c.apiOpts...)
	api, err := client.NewClientWithOpts(apiOpts...)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "create docker client"), ErrEngine)
	}
	c.api = api
	return c, nil
}

// Closes the connection to the engine.
func (c *Client) Close() error {
	return c.api.Close()
}

// Builds an image from the request's context stream.
//
// Intermediate containers are removed. Progress is rendered to the
// configured writer. An error reported inside the progress stream fails the
// build even though the HTTP request itself succeeded.
func (c *Client) Build(ctx context.Context, req *build.Request) (*build.Image, error) {
	resp, err := c.api.ImageBuild(ctx, req.Context, types.ImageBuildOptions{
		Tags:        req.Tags,
		Dockerfile:  req.Dockerfile,
		BuildArgs:   req.Args,
		Labels:      req.Labels,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "start build"), ErrEngine)
	}
	defer resp.Body.Close()

	if err := readStream(resp.Body, c.progress); err != nil {
		return nil, err
	}

	tag := ""
	if len(req.Tags) > 0 {
		tag = req.Tags[0]
	}

	inspect, _, err := c.api.ImageInspectWithRaw(ctx, tag)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "inspect %s", tag), ErrEngine)
	}

	slog.Info("image ready",
		"tag", tag,
		"id", inspect.ID,
		"size", humanize.Bytes(uint64(inspect.Size)),
	)

	return &build.Image{ID: inspect.ID, Tag: tag, Size: inspect.Size}, nil
}

// Writes the image as a "docker save" archive to w.
func (c *Client) Save(ctx context.Context, tag string, w io.Writer) error {
	rc, err := c.api.ImageSave(ctx, []string{tag})
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "save %s", tag), ErrEngine)
	}
	defer rc.Close()

	n, err := io.Copy(w, rc)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "save %s", tag), ErrEngine)
	}

	slog.Debug("image saved", "tag", tag, "size", humanize.Bytes(uint64(n)))
	return nil
}
