package build

import (
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/opencontainers/go-digest"

	"github.com/cruciblehq/harness/internal/paths"
)

// A dependency list copied into the build context for the duration of a build.
type staged struct {
	path   string        // Location of the copy inside the build context.
	digest digest.Digest // Digest of the copied content.
}

// Copies src to dest, replacing any existing file at dest.
//
// The digest is computed while copying. A missing or unreadable source fails
// with [ErrStage] and leaves dest untouched.
func stage(src, dest string) (*staged, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "open %s", src), ErrStage)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, errors.Mark(err, ErrStage)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Wrapf(ErrStage, "%s is not a regular file", src)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, paths.DefaultFileMode)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "create %s", dest), ErrStage)
	}

	digester := digest.Canonical.Digester()
	_, copyErr := io.Copy(io.MultiWriter(out, digester.Hash()), in)
	closeErr := out.Close()

	s := &staged{path: dest, digest: digester.Digest()}

	if err := errors.CombineErrors(copyErr, closeErr); err != nil {
		s.remove()
		return nil, errors.Mark(errors.Wrapf(err, "copy %s", src), ErrStage)
	}

	slog.Debug("staged dependency list", "src", src, "dest", dest, "digest", s.digest)
	return s, nil
}

// Deletes the staged copy.
//
// A copy that is already gone is not an error. Other failures are logged,
// since removal runs on cleanup paths with nowhere to return to.
func (s *staged) remove() {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove staged dependency list", "path", s.path, "error", err)
		return
	}
	slog.Debug("removed staged dependency list", "path", s.path)
}
