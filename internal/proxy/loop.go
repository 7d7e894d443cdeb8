package proxy

import (
	"fmt"
	"image"
	"math/bits"
	"os"

	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// LoopPlan places a seamless loop inside a synthesized clip.
type LoopPlan struct {
	StartSeconds float64
	EndSeconds   float64
	// Distance is the Hamming distance between the boundary frames.
	Distance int
	// CrossfadeSeconds is 0 for a hard cut.
	CrossfadeSeconds float64
}

// Duration returns the loop body length in seconds.
func (p LoopPlan) Duration() float64 {
	return p.EndSeconds - p.StartSeconds
}

// dhash computes a 64-bit difference hash: the image is reduced to a 9x8
// grayscale grid and each bit records whether brightness rises between
// horizontal neighbours.
func dhash(img image.Image) uint64 {
	const w, h = 9, 8
	gray := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	var hash uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w-1; x++ {
			hash <<= 1
			if gray.GrayAt(x+1, y).Y > gray.GrayAt(x, y).Y {
				hash |= 1
			}
		}
	}
	return hash
}

func hashFile(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open frame: %w", err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return 0, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return dhash(img), nil
}

// FindLoop hashes the sampled frames and picks the start/end pair with the
// smallest Hamming distance under threshold, preferring longer loops on ties.
// frameInterval is the seconds between consecutive samples. Pairs closer than
// a quarter of the clip are skipped so the loop keeps meaningful motion.
func FindLoop(framePaths []string, frameInterval float64, threshold int) (LoopPlan, error) {
	if len(framePaths) < 2 {
		return LoopPlan{}, fmt.Errorf("%w: %d frame samples", ErrNoLoopPointFound, len(framePaths))
	}

	hashes := make([]uint64, len(framePaths))
	for i, path := range framePaths {
		hash, err := hashFile(path)
		if err != nil {
			return LoopPlan{}, err
		}
		hashes[i] = hash
	}

	minSpan := len(hashes) / 4
	if minSpan < 1 {
		minSpan = 1
	}

	best := LoopPlan{Distance: threshold + 1}
	for start := 0; start < len(hashes); start++ {
		for end := start + minSpan; end < len(hashes); end++ {
			distance := bits.OnesCount64(hashes[start] ^ hashes[end])
			if distance > threshold {
				continue
			}
			span := end - start
			bestSpan := int((best.EndSeconds - best.StartSeconds) / frameInterval)
			if distance < best.Distance || (distance == best.Distance && span > bestSpan) {
				best = LoopPlan{
					StartSeconds: float64(start) * frameInterval,
					EndSeconds:   float64(end) * frameInterval,
					Distance:     distance,
				}
			}
		}
	}

	if best.Distance > threshold {
		return LoopPlan{}, fmt.Errorf("%w: best distance above threshold %d", ErrNoLoopPointFound, threshold)
	}
	return best, nil
}

// WithCrossfade sets the crossfade, clamped to half the loop body so the fade
// never dominates the clip.
func (p LoopPlan) WithCrossfade(seconds float64) LoopPlan {
	if seconds < 0 {
		seconds = 0
	}
	if half := p.Duration() / 2; seconds > half {
		seconds = half
	}
	p.CrossfadeSeconds = seconds
	return p
}
