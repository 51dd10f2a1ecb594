package tracker

import "github.com/cockroachdb/errors"

var ErrTracker = errors.New("tracker operation failed")
