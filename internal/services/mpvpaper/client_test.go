package mpvpaper

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestParseProfile(t *testing.T) {
	cases := map[string]Profile{
		"performance": ProfilePerformance,
		"Quality":     ProfileQuality,
		"balanced":    ProfileBalanced,
		"":            ProfileBalanced,
		"bogus":       ProfileBalanced,
	}
	for input, want := range cases {
		if got := ParseProfile(input); got != want {
			t.Errorf("ParseProfile(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestProfileOptions(t *testing.T) {
	opts := ProfilePerformance.Options(true)
	for _, want := range []string{"loop", "no-audio", "vd-lavc-fast"} {
		if !strings.Contains(opts, want) {
			t.Errorf("performance options %q missing %q", opts, want)
		}
	}
	if opts := ProfileQuality.Options(false); strings.Contains(opts, "no-audio") {
		t.Errorf("unmuted options should not disable audio: %q", opts)
	}
}

func TestLaunchValidation(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Launch(context.Background(), LaunchSpec{VideoPath: "a.mp4"}); err == nil {
		t.Fatal("expected error for missing monitor")
	}
	if _, err := cli.Launch(context.Background(), LaunchSpec{Monitor: "DP-1"}); err == nil {
		t.Fatal("expected error for missing video path")
	}
}

func TestLaunchArgsAndStop(t *testing.T) {
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		// A process that lingers until signalled.
		return exec.CommandContext(ctx, "sleep", "30")
	}
	t.Cleanup(func() { commandContext = original })

	cli := NewCLI(WithBinary("/usr/bin/mpvpaper"))
	proc, err := cli.Launch(context.Background(), LaunchSpec{
		Monitor:   "DP-1",
		VideoPath: "/tmp/proxy.mp4",
		Profile:   ProfileBalanced,
		MuteAudio: true,
	})
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if proc.Monitor() != "DP-1" || proc.PID() == 0 {
		t.Fatalf("unexpected process handle: pid=%d monitor=%q", proc.PID(), proc.Monitor())
	}

	if len(captured) != 4 || captured[0] != "-o" {
		t.Fatalf("unexpected args: %v", captured)
	}
	if captured[2] != "DP-1" || captured[3] != "/tmp/proxy.mp4" {
		t.Fatalf("expected monitor then video last, got %v", captured)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := proc.Stop(ctx, 2*time.Second); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}

func TestStopAfterExitIsNoError(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "true")
	}
	t.Cleanup(func() { commandContext = original })

	proc, err := NewCLI().Launch(context.Background(), LaunchSpec{Monitor: "DP-1", VideoPath: "a.mp4"})
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	<-proc.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := proc.Stop(ctx, 100*time.Millisecond); err != nil {
		t.Fatalf("Stop after exit returned error: %v", err)
	}
}

func TestMonitorFromArgs(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"mpvpaper", "-o", "loop no-audio", "DP-1", "/tmp/a.mp4"}, "DP-1"},
		{[]string{"mpvpaper", "HDMI-A-1", "/tmp/b.mp4"}, "HDMI-A-1"},
		{[]string{"mpvpaper"}, ""},
	}
	for _, tc := range cases {
		if got := monitorFromArgs(tc.args); got != tc.want {
			t.Errorf("monitorFromArgs(%v) = %q, want %q", tc.args, got, tc.want)
		}
	}
}
