package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	shellerrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
)

// waitDelay bounds how long Run waits on pipes held open by grandchildren
// after the shell itself was killed.
const waitDelay = 500 * time.Millisecond

// Runner runs a single command line and returns its trimmed stdout
type Runner interface {
	Run(ctx context.Context, line string) (string, error)
}

// Executor runs command lines through the user's POSIX shell. Each call
// spawns exactly one process and makes a single attempt.
type Executor struct {
	shell   string
	timeout time.Duration
	logger  logging.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithTimeout bounds every call. Zero waits for the process indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// New creates an Executor
func New(logger logging.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	e := &Executor{
		shell:  "sh",
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes line and returns stdout with trailing whitespace trimmed.
// A non-zero exit yields an EXECUTION error carrying the stderr text; any
// stderr output on a successful exit, whitespace included, yields a
// DIAGNOSTIC_OUTPUT error. TIMEOUT is reported only when the context ended
// and the process did not exit on its own.
func (e *Executor) Run(ctx context.Context, line string) (string, error) {
	const op = "executor.Run"

	if strings.TrimSpace(line) == "" {
		return "", shellerrors.NewWithContext(op, fmt.Errorf("empty command line"),
			shellerrors.ErrCodeValidation, nil)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.shell, "-c", line)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	wroteStderr := stderr.Len() > 0
	diag := strings.TrimSpace(stderr.String())
	errCtx := map[string]string{"command": line}

	if err != nil {
		var exitErr *exec.ExitError
		exited := errors.As(err, &exitErr) && exitErr.Exited()
		if ctxErr := ctx.Err(); ctxErr != nil && !exited {
			return "", shellerrors.NewWithContext(op,
				fmt.Errorf("command did not finish: %w", ctxErr),
				shellerrors.ErrCodeTimeout, errCtx)
		}
		if exitErr != nil {
			errCtx["exit_code"] = strconv.Itoa(exitErr.ExitCode())
		}
		if wroteStderr {
			errCtx["stderr"] = diag
			err = fmt.Errorf("%w: %s", err, diag)
		}
		return "", shellerrors.NewWithContext(op, err, shellerrors.ErrCodeExecution, errCtx)
	}

	if wroteStderr {
		errCtx["stderr"] = diag
		return "", shellerrors.NewWithContext(op,
			fmt.Errorf("command wrote to stderr: %q", stderr.String()),
			shellerrors.ErrCodeDiagnosticOutput, errCtx)
	}

	logging.LogOperation(e.logger, "exec", time.Since(start), map[string]interface{}{
		"command": line,
	})
	return strings.TrimRight(stdout.String(), " \t\r\n"), nil
}
