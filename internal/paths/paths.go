package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (

	// Subdirectory name under each base directory.
	appName = "harness"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Directory for cached, regenerable data.
//
//	Linux:   $XDG_CACHE_HOME/harness or ~/.cache/harness
//	macOS:   ~/Library/Caches/harness
func Cache() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// Directory holding image archives exported for containerd imports.
//
//	Linux:   $XDG_CACHE_HOME/harness/images
//	macOS:   ~/Library/Caches/harness/images
func Images() string {
	return filepath.Join(Cache(), "images")
}

// Path of the archive for an image tag inside dir.
//
// The tag is turned into a file name by replacing the separators that are
// not safe in paths, so "mlflow-tracker:v2.8.1" becomes
// "mlflow-tracker_v2.8.1.tar".
func Archive(dir, tag string) string {
	return filepath.Join(dir, Slug(tag)+".tar")
}

// Converts an image reference into a file-name-safe slug.
func Slug(ref string) string {
	return strings.NewReplacer("/", "-", ":", "_", "@", "_").Replace(ref)
}
