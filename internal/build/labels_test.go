package build

import (
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
)

func TestImageName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"mlflow-tracker:v2.8.1", "mlflow-tracker"},
		{"mlflow-tracker", "mlflow-tracker"},
		{"registry:5000/ml/mlflow-tracker:v2.8.1", "registry:5000/ml/mlflow-tracker"},
		{"registry:5000/ml/mlflow-tracker", "registry:5000/ml/mlflow-tracker"},
		{"mlflow-tracker@sha256:abcd", "mlflow-tracker"},
	}

	for _, tt := range tests {
		if got := ImageName(tt.tag); got != tt.want {
			t.Errorf("ImageName(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestLabels(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	oldNow, oldUUID := now, newUUID
	now = func() time.Time { return fixed }
	newUUID = func() string { return "00000000-0000-0000-0000-000000000001" }
	t.Cleanup(func() {
		now, newUUID = oldNow, oldUUID
	})

	d := digest.FromString("mlflow==2.8.1\n")
	l := labels(Options{Tag: DefaultTag}, d)

	want := map[string]string{
		"org.opencontainers.image.title":   "mlflow-tracker",
		"org.opencontainers.image.created": "2026-10-16T12:00:00Z",
		LabelBuildID:                       "00000000-0000-0000-0000-000000000001",
		LabelRequirementsDigest:            d.String(),
	}
	if len(l) != len(want) {
		t.Fatalf("labels = %v, want %v", l, want)
	}
	for k, v := range want {
		if l[k] != v {
			t.Errorf("labels[%q] = %q, want %q", k, l[k], v)
		}
	}
}

func TestLabelsOverride(t *testing.T) {
	l := labels(Options{
		Tag:    DefaultTag,
		Labels: map[string]string{"org.opencontainers.image.title": "tracker"},
	}, "")

	if l["org.opencontainers.image.title"] != "tracker" {
		t.Fatalf("title = %q, want tracker", l["org.opencontainers.image.title"])
	}
	if _, ok := l[LabelRequirementsDigest]; ok {
		t.Fatal("digest label set for empty digest")
	}
}
