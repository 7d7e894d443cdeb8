package spectrum

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"

	"scenewall/internal/fileutil"
	"scenewall/internal/services"
)

// Client defines the overlay consumer integration the orchestrator depends on.
type Client interface {
	Install(ctx context.Context, files map[string][]byte) ([]string, error)
	Reload(ctx context.Context) (bool, error)
}

// Option configures the consumer.
type Option func(*Consumer)

// WithBinary overrides the visualizer binary name used for liveness checks.
func WithBinary(binary string) Option {
	return func(c *Consumer) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// Consumer installs overlay artifacts for one visualizer config directory.
type Consumer struct {
	binary    string
	configDir string
}

// NewConsumer constructs a consumer writing into configDir.
func NewConsumer(configDir string, opts ...Option) *Consumer {
	consumer := &Consumer{binary: "spectrum", configDir: configDir}
	for _, opt := range opts {
		opt(consumer)
	}
	return consumer
}

// Install writes the artifact files into the config directory atomically and
// returns the installed paths in stable order.
func (c *Consumer) Install(_ context.Context, files map[string][]byte) ([]string, error) {
	if c.configDir == "" {
		return nil, errors.New("consumer config directory required")
	}
	if len(files) == 0 {
		return nil, errors.New("no artifact files to install")
	}
	if err := os.MkdirAll(c.configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create consumer config dir: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	installed := make([]string, 0, len(names))
	for _, name := range names {
		dest := filepath.Join(c.configDir, filepath.Base(name))
		if err := fileutil.WriteFileAtomic(dest, files[name], 0o644); err != nil {
			return installed, fmt.Errorf("install %s: %w", name, err)
		}
		installed = append(installed, dest)
	}
	return installed, nil
}

// Reload signals a running visualizer to re-read its config. Returns false
// when no instance is running, which is not an error.
func (c *Consumer) Reload(ctx context.Context) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		// Process table scans fail under momentary /proc contention and
		// succeed on the next attempt.
		return false, services.Wrap(services.ErrTransient, "spectrum", "reload", "process scan", err)
	}
	reloaded := false
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil || name != c.binary {
			continue
		}
		if err := unix.Kill(int(proc.Pid), unix.SIGUSR1); err != nil && !errors.Is(err, unix.ESRCH) {
			return reloaded, fmt.Errorf("signal %s (pid %d): %w", c.binary, proc.Pid, err)
		}
		reloaded = true
	}
	return reloaded, nil
}

var _ Client = (*Consumer)(nil)
