package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// LocalRunner builds and runs programs as child processes of the server. It
// relies on the toolchains being installed on the host.
type LocalRunner struct {
	TimeLimit time.Duration
	WorkDir   string // parent of the per-run temp dirs, os.TempDir() when empty
}

func NewLocalRunner(timeLimit time.Duration) *LocalRunner {
	return &LocalRunner{TimeLimit: timeLimit}
}

func (r *LocalRunner) Run(ctx context.Context, language, code, input string) (*Output, error) {
	tc, err := lookup(language)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(r.WorkDir, "learncode-run-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, tc.source), []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("write source: %w", err)
	}

	if len(tc.compile) > 0 {
		cmd := exec.CommandContext(ctx, tc.compile[0], tc.compile[1:]...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return nil, &CompileError{Output: string(out)}
			}
			return nil, fmt.Errorf("compile: %w", err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.TimeLimit)
	defer cancel()

	name := tc.run[0]
	if strings.HasPrefix(name, "./") {
		name = filepath.Join(dir, name)
	}
	cmd := exec.CommandContext(runCtx, name, tc.run[1:]...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	out := &Output{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return out, ErrTimeLimit
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, fmt.Errorf("run: %w", err)
	}
	return out, nil
}
