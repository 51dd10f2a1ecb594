package build

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Label keys specific to harness builds.
const (
	LabelRequirementsDigest = "io.cruciblehq.harness.requirements.digest"
	LabelBuildID            = "io.cruciblehq.harness.build.id"
)

// Overridable for tests.
var (
	now     = time.Now
	newUUID = uuid.NewString
)

// Computes the image labels for a build.
//
// Standard OCI annotation keys describe the image, harness keys record the
// dependency list digest and a build identifier. Labels from the options
// are applied last and win.
func labels(opts Options, requirements digest.Digest) map[string]string {
	l := map[string]string{
		ocispec.AnnotationTitle:   ImageName(opts.Tag),
		ocispec.AnnotationCreated: now().UTC().Format(time.RFC3339),
		LabelBuildID:              newUUID(),
	}
	if opts.Version != "" {
		l[ocispec.AnnotationVersion] = opts.Version
	}
	if requirements != "" {
		l[LabelRequirementsDigest] = requirements.String()
	}
	maps.Copy(l, opts.Labels)
	return l
}

// Returns the repository part of an image tag.
//
// A tag suffix after the last path component is dropped, so
// "registry:5000/ml/mlflow-tracker:v2.8.1" becomes
// "registry:5000/ml/mlflow-tracker". Digests are dropped as well.
func ImageName(tag string) string {
	if i := strings.IndexByte(tag, '@'); i >= 0 {
		tag = tag[:i]
	}
	slash := strings.LastIndexByte(tag, '/')
	if colon := strings.LastIndexByte(tag, ':'); colon > slash {
		return tag[:colon]
	}
	return tag
}
