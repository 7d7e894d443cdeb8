package mpvpaper

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

var commandContext = exec.CommandContext

// LaunchSpec describes one playback process.
type LaunchSpec struct {
	Monitor   string
	VideoPath string
	Profile   Profile
	MuteAudio bool
}

// Client defines playback behaviour the session orchestrator depends on.
type Client interface {
	Launch(ctx context.Context, spec LaunchSpec) (*Process, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the mpvpaper command line.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "mpvpaper"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Launch starts mpvpaper for the spec and returns a supervised handle. The
// process keeps running after Launch returns; exit status arrives on Wait.
func (c *CLI) Launch(ctx context.Context, spec LaunchSpec) (*Process, error) {
	if spec.Monitor == "" {
		return nil, errors.New("monitor required")
	}
	if spec.VideoPath == "" {
		return nil, errors.New("video path required")
	}

	args := []string{"-o", spec.Profile.Options(spec.MuteAudio), spec.Monitor, spec.VideoPath}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpvpaper: %w", err)
	}

	proc := &Process{
		pid:     cmd.Process.Pid,
		monitor: spec.Monitor,
		done:    make(chan error, 1),
	}
	go func() {
		proc.done <- cmd.Wait()
	}()
	return proc, nil
}

var _ Client = (*CLI)(nil)

// Process is a supervised playback process.
type Process struct {
	pid     int
	monitor string
	done    chan error
}

// PID returns the operating system process id.
func (p *Process) PID() int { return p.pid }

// Monitor returns the output the process renders to.
func (p *Process) Monitor() string { return p.monitor }

// Wait delivers the process exit status exactly once.
func (p *Process) Wait() <-chan error { return p.done }

// Stop asks the process to exit, escalating to SIGKILL once the grace period
// lapses. A process that already exited is not an error.
func (p *Process) Stop(ctx context.Context, grace time.Duration) error {
	if err := unix.Kill(p.pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("signal mpvpaper: %w", err)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if err := unix.Kill(p.pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill mpvpaper: %w", err)
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
