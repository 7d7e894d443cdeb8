package pulse

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestDefaultSinkMonitor(t *testing.T) {
	setHelperCommand(t, "sink")

	cli := NewCLI()
	monitor, err := cli.DefaultSinkMonitor(context.Background())
	if err != nil {
		t.Fatalf("DefaultSinkMonitor returned error: %v", err)
	}
	if monitor != "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor" {
		t.Fatalf("unexpected monitor source: %q", monitor)
	}
}

func TestDefaultSinkMonitorEmpty(t *testing.T) {
	setHelperCommand(t, "empty")

	if _, err := NewCLI().DefaultSinkMonitor(context.Background()); err == nil {
		t.Fatal("expected error for empty pactl output")
	}
}

func TestCaptureValidation(t *testing.T) {
	cli := NewCLI()
	ctx := context.Background()
	if _, err := cli.Capture(ctx, "", time.Second, 30); err == nil {
		t.Fatal("expected error for empty source")
	}
	if _, err := cli.Capture(ctx, "mon", 0, 30); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if _, err := cli.Capture(ctx, "mon", time.Second, 0); err == nil {
		t.Fatal("expected error for zero window rate")
	}
}

func TestCaptureReducesWindows(t *testing.T) {
	setHelperCommand(t, "tone")

	cli := NewCLI()
	windows, err := cli.Capture(context.Background(), "mon", 100*time.Millisecond, 10)
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if len(windows) == 0 {
		t.Fatal("expected at least one analysis window")
	}
	first := windows[0]
	if first.Peak <= 0 || first.Peak > 1 {
		t.Fatalf("peak out of range: %v", first.Peak)
	}
	if first.RMS <= 0 || first.RMS > first.Peak {
		t.Fatalf("rms %v should be positive and below peak %v", first.RMS, first.Peak)
	}
}

func TestReduceWindowsSilence(t *testing.T) {
	raw := make([]byte, sampleRate*frameBytes/10)
	windows := reduceWindows(raw, 30)
	if len(windows) == 0 {
		t.Fatal("expected windows from silent input")
	}
	for _, w := range windows {
		if !w.Silent() {
			t.Fatalf("expected silence, got %+v", w)
		}
	}
}

func TestReduceWindowsFullScale(t *testing.T) {
	// One window of alternating full-scale samples.
	samples := sampleRate * channels / 30
	raw := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(32767)))
	}
	windows := reduceWindows(raw, 30)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if math.Abs(windows[0].Peak-1) > 0.001 || math.Abs(windows[0].RMS-1) > 0.001 {
		t.Fatalf("expected full-scale levels, got %+v", windows[0])
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("PULSE_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("PULSE_HELPER_MODE") {
	case "sink":
		fmt.Println("alsa_output.pci-0000_00_1f.3.analog-stereo")
		os.Exit(0)
	case "empty":
		fmt.Println()
		os.Exit(0)
	case "tone":
		// 100ms of a half-scale square wave.
		samples := sampleRate * channels / 10
		raw := make([]byte, samples*2)
		for i := 0; i < samples; i++ {
			value := int16(16384)
			if i%2 == 1 {
				value = -16384
			}
			binary.LittleEndian.PutUint16(raw[i*2:], uint16(value))
		}
		os.Stdout.Write(raw)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}
