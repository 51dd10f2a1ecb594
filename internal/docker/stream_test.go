package docker

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestReadStreamSuccess(t *testing.T) {
	in := strings.NewReader(`{"stream":"Step 1/3 : FROM python:3.10-slim\n"}
{"stream":" ---> 1a2b3c\n"}
{"aux":{"ID":"sha256:1a2b3c"}}
{"stream":"Successfully tagged mlflow-tracker:v2.8.1\n"}
`)
	var out bytes.Buffer

	if err := readStream(in, &out); err != nil {
		t.Fatalf("readStream: %v", err)
	}
	if !strings.Contains(out.String(), "Successfully tagged mlflow-tracker:v2.8.1") {
		t.Fatalf("output = %q, want progress lines", out.String())
	}
}

func TestReadStreamError(t *testing.T) {
	in := strings.NewReader(`{"stream":"Step 2/3 : RUN pip install -r requirements.txt\n"}
{"errorDetail":{"code":1,"message":"The command '/bin/sh -c pip install' returned a non-zero code: 1"},"error":"The command '/bin/sh -c pip install' returned a non-zero code: 1"}
`)
	var out bytes.Buffer

	err := readStream(in, &out)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("err = %v, want ErrBuild", err)
	}
	if !strings.Contains(err.Error(), "returned a non-zero code: 1") {
		t.Fatalf("err = %q, want engine message", err.Error())
	}
}

func TestReadStreamMalformed(t *testing.T) {
	err := readStream(strings.NewReader("{not json"), &bytes.Buffer{})
	if !errors.Is(err, ErrEngine) {
		t.Fatalf("err = %v, want ErrEngine", err)
	}
}

func TestTerminalNonFile(t *testing.T) {
	if _, tty := terminal(&bytes.Buffer{}); tty {
		t.Fatal("buffer reported as terminal")
	}
}
