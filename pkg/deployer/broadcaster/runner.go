package broadcaster

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner runs one node client invocation and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

type RunnerFunc func(ctx context.Context, name string, args []string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	return f(ctx, name, args)
}

// ExecRunner runs the node client as a subprocess. Stderr is folded into
// the returned error.
type ExecRunner struct {
	Env []string
	Dir string
}

func (r *ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = r.Env
	}
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args[:min(len(args), 3)], " "), err, msg)
	}
	return stdout.Bytes(), nil
}
