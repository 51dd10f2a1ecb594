package build

import "github.com/cockroachdb/errors"

var (
	ErrBuild               = errors.New("image build failed")
	ErrStage               = errors.New("staging dependency list failed")
	ErrFileSystemOperation = errors.New("file system operation failed")
	ErrInvalidOptions      = errors.New("invalid build options")
)
