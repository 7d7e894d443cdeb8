package pulse

import (
	"encoding/binary"
	"math"
)

// Window is the reduced loudness of one analysis window.
type Window struct {
	// Peak is the largest absolute sample in the window, normalized to 0..1.
	Peak float64
	// RMS is the root mean square level of the window, normalized to 0..1.
	RMS float64
}

// Silent reports whether the window carries no meaningful signal.
func (w Window) Silent() bool {
	return w.Peak < 0.001
}

// reduceWindows folds interleaved s16le stereo samples into per-window
// peak/RMS levels. A trailing partial window is kept.
func reduceWindows(raw []byte, windowsPerSecond int) []Window {
	samplesPerWindow := sampleRate * channels / windowsPerSecond
	if samplesPerWindow == 0 {
		samplesPerWindow = 1
	}

	sampleCount := len(raw) / 2
	var windows []Window
	for start := 0; start < sampleCount; start += samplesPerWindow {
		end := start + samplesPerWindow
		if end > sampleCount {
			end = sampleCount
		}
		var peak, sumSquares float64
		for i := start; i < end; i++ {
			value := float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
			if abs := math.Abs(value); abs > peak {
				peak = abs
			}
			sumSquares += value * value
		}
		windows = append(windows, Window{
			Peak: peak,
			RMS:  math.Sqrt(sumSquares / float64(end-start)),
		})
	}
	return windows
}
