package osclip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Runner spawns processes. The adapter never touches os/exec directly so
// tests can substitute a fake.
type Runner interface {
	// LookPath reports whether name resolves to an executable.
	LookPath(name string) (string, error)

	// Start launches cmd. A non-nil error means the process never started.
	// stdin, when non-nil, is written to the process and then closed by
	// Process.Wait. stdout, when nil, is discarded.
	Start(ctx context.Context, cmd Command, stdin io.Reader, stdout io.Writer) (Process, error)
}

// Process is a started command.
type Process interface {
	// Wait delivers stdin, waits for exit and returns the exit code. A
	// non-nil error means the exit status could not be determined.
	Wait() (int, error)
}

// ExecRunner runs commands with os/exec. Cancelling the context kills the
// process.
type ExecRunner struct{}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (ExecRunner) Start(ctx context.Context, c Command, stdin io.Reader, stdout io.Writer) (Process, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = nil

	var pipe io.WriteCloser
	if stdin != nil {
		p, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
		}
		pipe = p
	}

	if err := cmd.Start(); err != nil {
		if pipe != nil {
			_ = pipe.Close()
		}
		return nil, fmt.Errorf("failed to start %s: %w", c.Name, err)
	}

	return &execProcess{ctx: ctx, cmd: cmd, name: c.Name, pipe: pipe, input: stdin}, nil
}

type execProcess struct {
	ctx   context.Context
	cmd   *exec.Cmd
	name  string
	pipe  io.WriteCloser
	input io.Reader
}

func (p *execProcess) Wait() (int, error) {
	if p.pipe != nil {
		_, writeErr := io.Copy(p.pipe, p.input)
		closeErr := p.pipe.Close()
		if writeErr == nil {
			writeErr = closeErr
		}
		if writeErr != nil {
			// A utility that exits early closes its end of the pipe.
			// Report its exit status instead of the write error.
			err := p.cmd.Wait()
			var exitErr *exec.ExitError
			if p.ctx.Err() == nil && errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
				return exitErr.ExitCode(), nil
			}
			return -1, fmt.Errorf("failed to write to %s: %w", p.name, writeErr)
		}
	}

	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if ctxErr := p.ctx.Err(); ctxErr != nil {
		return -1, fmt.Errorf("%s interrupted: %w", p.name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("%s failed: %w", p.name, err)
}
