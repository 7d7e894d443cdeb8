package pulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

const (
	sampleRate = 48000
	channels   = 2
	// bytes per interleaved sample frame: two s16le channels
	frameBytes = channels * 2
)

// Client defines audio probing behaviour the overlay planner depends on.
type Client interface {
	DefaultSinkMonitor(ctx context.Context) (string, error)
	Capture(ctx context.Context, source string, duration time.Duration, windowsPerSecond int) ([]Window, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithPactl overrides the pactl binary name.
func WithPactl(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.pactl = binary
		}
	}
}

// WithParec overrides the parec binary name.
func WithParec(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.parec = binary
		}
	}
}

// CLI wraps the pactl and parec command lines.
type CLI struct {
	pactl string
	parec string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{pactl: "pactl", parec: "parec"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// DefaultSinkMonitor resolves the monitor source of the default sink, which
// observes whatever the desktop is playing.
func (c *CLI) DefaultSinkMonitor(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, c.pactl, "get-default-sink") //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pactl get-default-sink: %w", err)
	}
	sink := strings.TrimSpace(string(output))
	if sink == "" {
		return "", errors.New("pactl reported no default sink")
	}
	return sink + ".monitor", nil
}

// Capture records from source for the given duration and reduces the stream
// to per-window levels. windowsPerSecond is typically the overlay frame rate.
func (c *CLI) Capture(ctx context.Context, source string, duration time.Duration, windowsPerSecond int) ([]Window, error) {
	if source == "" {
		return nil, errors.New("capture source required")
	}
	if duration <= 0 {
		return nil, errors.New("capture duration must be positive")
	}
	if windowsPerSecond <= 0 {
		return nil, errors.New("window rate must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, duration+5*time.Second)
	defer cancel()

	args := []string{
		"--format=s16le",
		"--rate=" + strconv.Itoa(sampleRate),
		"--channels=" + strconv.Itoa(channels),
		"-d", source,
	}
	cmd := commandContext(ctx, c.parec, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start parec: %w", err)
	}
	// parec streams until killed; read exactly the bytes we need, then stop it.
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	total := int(duration.Seconds()*sampleRate) * frameBytes
	raw := make([]byte, total)
	n, err := io.ReadFull(stdout, raw)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read parec stream: %w", err)
	}
	if n == 0 {
		return nil, errors.New("parec produced no samples")
	}

	return reduceWindows(raw[:n], windowsPerSecond), nil
}

var _ Client = (*CLI)(nil)
