package docker

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/docker/docker/pkg/jsonmessage"
)

// Renders a JSON progress stream from the engine and returns the first error
// it carries.
//
// When out is a terminal the stream is drawn with cursor movement, the same
// way the docker CLI does. Otherwise each message is written as a line.
func readStream(in io.Reader, out io.Writer) error {
	fd, tty := terminal(out)

	err := jsonmessage.DisplayJSONMessagesStream(in, out, fd, tty, nil)
	if err == nil {
		return nil
	}

	var jerr *jsonmessage.JSONError
	if errors.As(err, &jerr) {
		return errors.Mark(errors.Newf("%s", jerr.Message), ErrBuild)
	}
	return errors.Mark(errors.Wrap(err, "read build output"), ErrEngine)
}

// Returns the file descriptor of w and whether it is an interactive terminal.
func terminal(w io.Writer) (uintptr, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	info, err := f.Stat()
	if err != nil {
		return 0, false
	}
	return f.Fd(), info.Mode()&os.ModeCharDevice != 0
}
