package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"scenewall/internal/services"
)

var commandContext = exec.CommandContext

// ProgressUpdate captures ffmpeg encode progress events.
type ProgressUpdate struct {
	OutTimeSeconds float64
	Frame          int64
	Speed          string
	Done           bool
}

// Client defines the encoding behaviour the proxy synthesizer depends on.
type Client interface {
	Encode(ctx context.Context, req EncodeRequest, progress func(ProgressUpdate)) error
	SampleFrames(ctx context.Context, input, destDir string, fps float64, count int) ([]string, error)
}

// EncodeRequest describes one proxy encode.
type EncodeRequest struct {
	// Input is the primary media path. LoopInput adds -loop 1 for still
	// image inputs.
	Input       string
	LoopInput   bool
	ExtraInputs []string
	// FilterGraph is the complete -vf / -filter_complex expression. The
	// caller owns scaling, frame rate, and pixel format. Complex forces
	// -filter_complex for single-input graphs that branch (split/xfade).
	FilterGraph     string
	Complex         bool
	DurationSeconds float64
	CRF             int
	MuteAudio       bool
	Output          string
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

// CLI wraps the ffmpeg command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Encode runs one proxy encode to completion, streaming progress events as
// they arrive.
func (c *CLI) Encode(ctx context.Context, req EncodeRequest, progress func(ProgressUpdate)) error {
	args, err := encodeArgs(req)
	if err != nil {
		return err
	}

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	update := ProgressUpdate{}
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), "=")
		if !found {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil {
				update.OutTimeSeconds = float64(us) / 1e6
			}
		case "frame":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				update.Frame = n
			}
		case "speed":
			update.Speed = strings.TrimSpace(value)
		case "progress":
			update.Done = value == "end"
			if progress != nil {
				progress(update)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ffmpeg output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "ffmpeg", "encode", req.Output, ctxErr)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("ffmpeg encode failed: %w: %s", err, detail)
		}
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}
	return nil
}

// SampleFrames extracts count evenly spaced frames from input into destDir as
// PNGs and returns their paths in timeline order.
func (c *CLI) SampleFrames(ctx context.Context, input, destDir string, fps float64, count int) ([]string, error) {
	if input == "" {
		return nil, errors.New("input path required")
	}
	if count <= 0 {
		return nil, errors.New("frame count must be positive")
	}
	if fps <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sample dir: %w", err)
	}

	pattern := filepath.Join(destDir, "frame-%05d.png")
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vf", fmt.Sprintf("fps=%s", formatFloat(fps)),
		"-frames:v", strconv.Itoa(count),
		pattern,
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame sample failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	frames, err := filepath.Glob(filepath.Join(destDir, "frame-*.png"))
	if err != nil {
		return nil, fmt.Errorf("list sampled frames: %w", err)
	}
	sort.Strings(frames)
	return frames, nil
}

func encodeArgs(req EncodeRequest) ([]string, error) {
	if req.Input == "" {
		return nil, errors.New("input path required")
	}
	if req.Output == "" {
		return nil, errors.New("output path required")
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-progress", "pipe:1"}
	if req.LoopInput {
		args = append(args, "-loop", "1")
	}
	args = append(args, "-i", req.Input)
	for _, extra := range req.ExtraInputs {
		args = append(args, "-i", extra)
	}
	if req.FilterGraph != "" {
		flag := "-vf"
		if req.Complex || len(req.ExtraInputs) > 0 {
			flag = "-filter_complex"
		}
		args = append(args, flag, req.FilterGraph)
	}
	if req.DurationSeconds > 0 {
		args = append(args, "-t", formatFloat(req.DurationSeconds))
	}
	args = append(args, "-c:v", "libx264", "-crf", strconv.Itoa(req.CRF), "-movflags", "+faststart")
	if req.MuteAudio {
		args = append(args, "-an")
	}
	args = append(args, req.Output)
	return args, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ Client = (*CLI)(nil)
