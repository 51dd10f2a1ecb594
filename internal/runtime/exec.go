package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Sequence counter for exec process identifiers.
var execSeq atomic.Uint64

// Returns a unique exec process identifier.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", execSeq.Add(1))
}

// Output of a command run inside a container.
type ExecResult struct {
	ExitCode int    // Exit code of the process.
	Stdout   string // Captured standard output.
	Stderr   string // Captured standard error.
}

// Runs args inside the running container without a shell.
//
// env entries ("KEY=VALUE") override the container's environment for this
// process only. A non-zero exit code is reported in the result, not as an
// error.
func (c *Container) Exec(ctx context.Context, args []string, env []string) (*ExecResult, error) {
	if len(args) == 0 {
		return nil, errors.Wrap(ErrRuntime, "exec requires a command")
	}

	pspec, err := c.buildProcessSpec(ctx, env, args)
	if err != nil {
		return nil, errors.Mark(err, ErrRuntime)
	}

	var stdout, stderr bytes.Buffer
	exitCode, err := c.execProcess(ctx, pspec, &stdout, &stderr)
	if err != nil {
		return nil, err
	}

	return &ExecResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// Builds the process spec for an exec from the container's own spec.
func (c *Container) buildProcessSpec(ctx context.Context, env []string, args []string) (*specs.Process, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, err
	}

	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}

	pspec := *spec.Process
	pspec.Terminal = false
	pspec.Args = args

	if len(env) > 0 {
		pspec.Env = mergeEnv(pspec.Env, env)
	}

	return &pspec, nil
}

// Merges override env entries on top of a base env slice.
//
// Entries without "=" are dropped.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, entry := range append(append([]string(nil), base...), overrides...) {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	return result
}

// Attaches a process to the container's running task and waits for it.
//
// The process is always deleted before returning.
func (c *Container) execProcess(ctx context.Context, pspec *specs.Process, stdout, stderr io.Writer) (int, error) {
	task, err := c.loadTask(ctx)
	if err != nil {
		return 0, err
	}

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(nil, stdout, stderr),
	))
	if err != nil {
		return 0, errors.Mark(err, ErrRuntime)
	}

	return awaitProcess(ctx, process)
}

// Loads the container's running task.
func (c *Container) loadTask(ctx context.Context) (containerd.Task, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, errors.Mark(err, ErrRuntime)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "container %s is not running", c.id), ErrRuntime)
	}

	return task, nil
}

// Starts an exec process, waits for it to exit, and returns the exit code.
func awaitProcess(ctx context.Context, process containerd.Process) (int, error) {
	statusC, err := process.Wait(ctx)
	if err != nil {
		process.Delete(ctx)
		return 0, errors.Mark(err, ErrRuntime)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(ctx)
		return 0, errors.Mark(err, ErrRuntime)
	}

	exitStatus := <-statusC
	process.Delete(ctx)

	code, _, err := exitStatus.Result()
	if err != nil {
		return 0, errors.Mark(err, ErrRuntime)
	}

	return int(code), nil
}
