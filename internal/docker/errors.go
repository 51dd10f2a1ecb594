package docker

import "github.com/cockroachdb/errors"

var (
	ErrEngine = errors.New("docker engine error")
	ErrBuild  = errors.New("build step failed")
)
