package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"scenewall/internal/services"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/ffmpeg"))
	if cli.binary != "/opt/ffmpeg" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestEncodeArgsValidation(t *testing.T) {
	if _, err := encodeArgs(EncodeRequest{Output: "out.mp4"}); err == nil {
		t.Fatal("expected error when input path is empty")
	}
	if _, err := encodeArgs(EncodeRequest{Input: "in.mp4"}); err == nil {
		t.Fatal("expected error when output path is empty")
	}
}

func TestEncodeArgsShape(t *testing.T) {
	args, err := encodeArgs(EncodeRequest{
		Input:           "scene.png",
		LoopInput:       true,
		FilterGraph:     "scale=1920:-2,fps=30,format=yuv420p",
		DurationSeconds: 12.5,
		CRF:             28,
		MuteAudio:       true,
		Output:          "proxy.mp4",
	})
	if err != nil {
		t.Fatalf("encodeArgs: %v", err)
	}

	for _, want := range [][2]string{
		{"-loop", "1"},
		{"-i", "scene.png"},
		{"-vf", "scale=1920:-2,fps=30,format=yuv420p"},
		{"-t", "12.5"},
		{"-c:v", "libx264"},
		{"-crf", "28"},
		{"-movflags", "+faststart"},
	} {
		idx := findArg(args, want[0])
		if idx == -1 {
			t.Fatalf("expected %s in args %v", want[0], args)
		}
		if args[idx+1] != want[1] {
			t.Fatalf("expected %s %s, got %s", want[0], want[1], args[idx+1])
		}
	}
	if findArg(args, "-an") == -1 {
		t.Fatalf("expected -an for muted encode, got %v", args)
	}
	if args[len(args)-1] != "proxy.mp4" {
		t.Fatalf("expected output last, got %v", args)
	}
}

func TestEncodeArgsMultiInputUsesFilterComplex(t *testing.T) {
	args, err := encodeArgs(EncodeRequest{
		Input:       "base.mp4",
		ExtraInputs: []string{"overlay.png"},
		FilterGraph: "[0:v][1:v]overlay[out]",
		Output:      "proxy.mp4",
	})
	if err != nil {
		t.Fatalf("encodeArgs: %v", err)
	}
	if findArg(args, "-filter_complex") == -1 {
		t.Fatalf("expected -filter_complex for multi-input graph, got %v", args)
	}
	if findArg(args, "-vf") != -1 {
		t.Fatalf("did not expect -vf alongside -filter_complex: %v", args)
	}
}

func TestCLIEncodeStreamsProgress(t *testing.T) {
	setHelperCommand(t, "progress")

	cli := NewCLI()
	var updates []ProgressUpdate
	err := cli.Encode(context.Background(), EncodeRequest{Input: "in.mp4", Output: "out.mp4"}, func(u ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 progress updates, got %d", len(updates))
	}
	if updates[0].OutTimeSeconds != 1.5 || updates[0].Done {
		t.Fatalf("unexpected first update: %+v", updates[0])
	}
	final := updates[1]
	if !final.Done || final.Frame != 180 || final.Speed != "4.1x" {
		t.Fatalf("unexpected final update: %+v", final)
	}
}

func TestCLIEncodeFailureIncludesStderr(t *testing.T) {
	setHelperCommand(t, "failure")

	cli := NewCLI()
	err := cli.Encode(context.Background(), EncodeRequest{Input: "in.mp4", Output: "out.mp4"}, nil)
	if err == nil {
		t.Fatal("expected encode failure error")
	}
}

func TestCLIEncodeDeadlineClassifiesTimeout(t *testing.T) {
	setHelperCommand(t, "hang")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cli := NewCLI()
	err := cli.Encode(ctx, EncodeRequest{Input: "in.mp4", Output: "out.mp4"}, nil)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestSampleFramesValidation(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.SampleFrames(context.Background(), "", t.TempDir(), 1, 8); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := cli.SampleFrames(context.Background(), "in.mp4", t.TempDir(), 1, 0); err == nil {
		t.Fatal("expected error for zero frame count")
	}
	if _, err := cli.SampleFrames(context.Background(), "in.mp4", t.TempDir(), 0, 8); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
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

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "progress":
		fmt.Println("frame=45")
		fmt.Println("out_time_us=1500000")
		fmt.Println("speed=4.0x")
		fmt.Println("progress=continue")
		fmt.Println("frame=180")
		fmt.Println("out_time_us=6000000")
		fmt.Println("speed=4.1x")
		fmt.Println("progress=end")
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	case "hang":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
