package mpvpaper

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Stray describes a playback process not owned by this run, typically left
// over after a crash.
type Stray struct {
	PID     int32
	Monitor string
}

// FindStrays lists running mpvpaper processes on the host. The monitor is
// recovered from the command line when possible.
func FindStrays(ctx context.Context, binary string) ([]Stray, error) {
	name := filepath.Base(binary)
	if name == "" || name == "." {
		name = "mpvpaper"
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var strays []Stray
	for _, proc := range procs {
		procName, err := proc.NameWithContext(ctx)
		if err != nil || procName != name {
			continue
		}
		args, err := proc.CmdlineSliceWithContext(ctx)
		if err != nil {
			args = nil
		}
		strays = append(strays, Stray{PID: proc.Pid, Monitor: monitorFromArgs(args)})
	}
	return strays, nil
}

// monitorFromArgs picks the output name from an mpvpaper command line: the
// second-to-last positional argument, before the video path.
func monitorFromArgs(args []string) string {
	var positional []string
	skip := false
	for i, arg := range args {
		if i == 0 || skip {
			skip = false
			continue
		}
		if strings.HasPrefix(arg, "-") {
			// -o and its option string travel together.
			skip = arg == "-o" || arg == "--mpv-options"
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) < 2 {
		return ""
	}
	return positional[len(positional)-2]
}
