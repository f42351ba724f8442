// Package gateway runs commands with elevated privilege on behalf of the client.
//
// A call is synchronous and returns the exit status plus stdout and stderr split in lines.
// Callers treat any unsuccessful Result as a total failure of that call, never as partial
// data. Timeouts and cancellation are the gateway's job: ShellGateway bounds every call
// with its Timeout and the caller's context.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/kairos-io/hymoctl/internal/constants"
	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
)

var errEmptyCommand = errors.New("empty command")

// Result of one gateway call.
type Result struct {
	Success  bool
	Stdout   []string
	Stderr   []string
	ExitCode int
	Err      error // transport error, the command may not have run at all
}

// Output joins stdout lines back together.
func (r Result) Output() string {
	return strings.Join(r.Stdout, "\n")
}

// Error describes why the call failed, nil on success.
func (r Result) Error() error {
	if r.Success {
		return nil
	}
	if r.Err != nil {
		return fmt.Errorf("%w: %w", constants.ErrCommandFailed, r.Err)
	}
	return fmt.Errorf("%w: exit code %d: %s", constants.ErrCommandFailed, r.ExitCode, strings.Join(r.Stderr, " "))
}

// Gateway executes a command line, or a sequence run as one shell script.
type Gateway interface {
	Exec(ctx context.Context, cmds ...string) Result
}

// ShellGateway runs scripts with /bin/sh, optionally through a privilege wrapper such as
// `su -c` when the process itself is not privileged.
type ShellGateway struct {
	Shell    string        // defaults to /bin/sh
	Su       string        // e.g. "su -c", the script is passed as the last argument
	Timeout  time.Duration // per attempt, 0 = bounded only by ctx
	Attempts uint          // transport attempts, non-zero exits are never retried
}

// NewShellGateway builds a gateway from the client settings.
func NewShellGateway(s internalUtils.Settings) *ShellGateway {
	return &ShellGateway{Su: s.Su, Timeout: s.Timeout, Attempts: s.Attempts}
}

func (g *ShellGateway) command(ctx context.Context, script string) *exec.Cmd {
	if fields := strings.Fields(g.Su); len(fields) > 0 {
		return exec.CommandContext(ctx, fields[0], append(fields[1:], script)...)
	}
	shell := g.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	return exec.CommandContext(ctx, shell, "-c", script)
}

func (g *ShellGateway) Exec(ctx context.Context, cmds ...string) Result {
	if len(cmds) == 0 {
		return Result{ExitCode: -1, Err: errEmptyCommand}
	}
	script := strings.Join(cmds, "\n")
	l := internalUtils.Log.With().Str("cmd", cmds[0]).Int("lines", len(cmds)).Logger()
	l.Debug().Msg("Running command")

	attempts := g.Attempts
	if attempts == 0 {
		attempts = 1
	}

	var res Result
	err := retry.Do(
		func() error {
			res = g.run(ctx, script)
			return res.Err
		},
		retry.Attempts(attempts),
		retry.Context(ctx),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			l.Warn().Err(err).Uint("attempt", n+1).Msg("Retrying command")
		}),
	)
	if err != nil && res.Err == nil {
		res = Result{ExitCode: -1, Err: err}
	}
	if !res.Success {
		l.Debug().Err(res.Error()).Msg("Command failed")
	}
	return res
}

func (g *ShellGateway) run(ctx context.Context, script string) Result {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	c := g.command(ctx, script)
	c.Stdout = &stdout
	c.Stderr = &stderr
	err := c.Run()

	res := Result{
		Stdout: splitLines(stdout.String()),
		Stderr: splitLines(stderr.String()),
	}
	if ctx.Err() != nil {
		res.ExitCode = -1
		res.Err = ctx.Err()
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Success = true
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = err
	}
	return res
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
