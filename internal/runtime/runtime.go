package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"
	"syscall"

	"github.com/cockroachdb/errors"
	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
)

const (

	// Default containerd socket address.
	DefaultAddress = "/run/containerd/containerd.sock"

	// Default namespace for harness images and containers.
	DefaultNamespace = "harness"

	// Default snapshotter for container filesystems.
	DefaultSnapshotter = "overlayfs"

	// OCI runtime shim for running containers.
	ociRuntime = "io.containerd.runc.v2"
)

// Manages the containerd client and provides image and container operations.
type Runtime struct {
	client      *containerd.Client // Containerd client for managing containers and images.
	snapshotter string             // Snapshotter used for unpacking and container filesystems.
}

// Creates a runtime connected to the containerd socket at address.
//
// Empty arguments fall back to [DefaultAddress], [DefaultNamespace], and
// [DefaultSnapshotter]. The runtime must be closed when no longer needed.
func New(address, namespace, snapshotter string) (*Runtime, error) {
	if address == "" {
		address = DefaultAddress
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if snapshotter == "" {
		snapshotter = DefaultSnapshotter
	}

	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "connect to %s", address), ErrRuntime)
	}
	return &Runtime{client: client, snapshotter: snapshotter}, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Imports an image archive, tags it, and unpacks it for the host platform.
//
// Both OCI and "docker save" archives are accepted. The archive must hold
// exactly one image.
func (rt *Runtime) ImportImage(ctx context.Context, path, tag string) error {
	source, err := rt.importArchive(ctx, path)
	if err != nil {
		return errors.Mark(err, ErrRuntime)
	}

	if err := rt.tagImage(ctx, source, tag); err != nil {
		return errors.Mark(err, ErrRuntime)
	}

	if err := rt.unpackImage(ctx, tag, defaultPlatform()); err != nil {
		return errors.Mark(err, ErrRuntime)
	}

	slog.Debug("image imported", "tag", tag, "archive", path)
	return nil
}

// Imports an archive into the content store.
//
// Import returns one record per image in the archive's index. A
// multi-platform image is a single record whose index references the
// per-platform manifests, so more than one record means unrelated images.
func (rt *Runtime) importArchive(ctx context.Context, path string) (images.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return images.Image{}, err
	}
	defer fh.Close()

	imported, err := rt.client.Import(ctx, fh)
	if err != nil {
		return images.Image{}, err
	}

	switch len(imported) {
	case 0:
		return images.Image{}, ErrEmptyArchive
	case 1:
		return imported[0], nil
	default:
		return images.Image{}, errors.Wrapf(ErrMultipleImages, "%s holds %d images", path, len(imported))
	}
}

// Points tag at the imported image's target.
//
// An existing tag is updated in place. The import record is dropped when its
// name differs from the tag.
func (rt *Runtime) tagImage(ctx context.Context, source images.Image, tag string) error {
	is := rt.client.ImageService()

	img := images.Image{
		Name:   tag,
		Target: source.Target,
	}

	if _, err := is.Create(ctx, img); err != nil {
		if !errdefs.IsAlreadyExists(err) {
			return err
		}
		if _, err := is.Update(ctx, img, "target"); err != nil {
			return err
		}
	}

	if source.Name != tag {
		_ = is.Delete(ctx, source.Name)
	}

	return nil
}

// Unpacks the image layers for platform into the snapshotter.
func (rt *Runtime) unpackImage(ctx context.Context, tag, platform string) error {
	image, err := rt.resolveImage(ctx, tag, platform)
	if err != nil {
		return err
	}

	return image.Unpack(ctx, rt.snapshotter)
}

// Looks up a tagged image restricted to a single platform.
func (rt *Runtime) resolveImage(ctx context.Context, tag, platform string) (containerd.Image, error) {
	p, err := platforms.Parse(platform)
	if err != nil {
		return nil, err
	}

	img, err := rt.client.ImageService().Get(ctx, tag)
	if err != nil {
		return nil, err
	}

	return containerd.NewImageWithPlatform(rt.client, img, platforms.Only(p)), nil
}

// Returns the OCI platform for the host architecture.
func defaultPlatform() string {
	return "linux/" + goruntime.GOARCH
}

// Starts a detached container from a previously imported image.
//
// Any stale container with the same ID is removed first. The container runs
// the image's own entrypoint on the host network with env added to the
// image's environment.
func (rt *Runtime) StartFromTag(ctx context.Context, tag, id string, env []string) (*Container, error) {
	c := rt.Container(id)

	c.remove(ctx)

	image, err := rt.resolveImage(ctx, tag, c.platform)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "resolve %s", tag), ErrRuntime)
	}

	ctr, err := c.create(ctx, image, env)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "create %s", id), ErrRuntime)
	}

	if err := c.startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, errors.Mark(errors.Wrapf(err, "start %s", id), ErrRuntime)
	}

	slog.Debug("container started", "id", id, "image", tag)
	return c, nil
}

// Removes an image and all containers created from it.
//
// Containers are found by their image field. Each task is killed before the
// container and its snapshot are deleted.
func (rt *Runtime) DestroyImage(ctx context.Context, tag string) error {
	ctrs, err := rt.client.Containers(ctx, fmt.Sprintf("image==%s", tag))
	if err != nil {
		return errors.Mark(err, ErrRuntime)
	}

	for _, ctr := range ctrs {
		if task, taskErr := ctr.Task(ctx, nil); taskErr == nil {
			task.Kill(ctx, syscall.SIGKILL)
			task.Delete(ctx, containerd.WithProcessKill)
		}
		if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
			return errors.Mark(err, ErrRuntime)
		}
	}

	if err := rt.client.ImageService().Delete(ctx, tag); err != nil && !errdefs.IsNotFound(err) {
		return errors.Mark(err, ErrRuntime)
	}

	slog.Debug("image destroyed", "tag", tag)
	return nil
}

// Returns a handle for a container by ID.
//
// The container is not loaded or verified; the handle resolves it lazily.
func (rt *Runtime) Container(id string) *Container {
	return &Container{
		client:      rt.client,
		id:          id,
		platform:    defaultPlatform(),
		snapshotter: rt.snapshotter,
	}
}
