package native

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/gg"
	_ "github.com/gogpu/gg/gpu" // register the GPU accelerator when available

	"scenewall/internal/logging"
	"scenewall/internal/passgraph"
	"scenewall/internal/scenegraph"
)

// ErrDeviceLost marks an unrecoverable rendering context failure. Fatal: the
// session tears down.
var ErrDeviceLost = errors.New("render device lost")

// Warning records a node the renderer skipped or approximated. The frame loop
// continues degraded.
type Warning struct {
	Node   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Node, w.Reason)
}

// Renderer executes a pass plan against a gg context.
type Renderer struct {
	plan *passgraph.Plan
	// sources maps a layer's first texture reference to a decodable image
	// file extracted from the package.
	sources map[string]string
	fps     int
	logger  *slog.Logger

	ctx    *gg.Context
	images map[string]*gg.ImageBuf
}

// NewRenderer constructs a renderer for the plan. sources maps container
// entry names to extracted image paths.
func NewRenderer(plan *passgraph.Plan, sources map[string]string, fps int, logger *slog.Logger) *Renderer {
	if fps <= 0 {
		fps = 30
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		plan:    plan,
		sources: sources,
		fps:     fps,
		logger:  logger,
		images:  map[string]*gg.ImageBuf{},
	}
}

// Accelerated reports whether a GPU accelerator is registered.
func Accelerated() bool {
	return gg.Accelerator() != nil
}

// RenderFrame composites one frame at time t (seconds since start) and
// returns the result with any warnings gathered along the way.
func (r *Renderer) RenderFrame(t float64) (image.Image, []Warning, error) {
	if r.ctx == nil {
		r.ctx = gg.NewContext(r.plan.Width, r.plan.Height)
		if r.ctx == nil {
			return nil, nil, fmt.Errorf("%w: context allocation failed", ErrDeviceLost)
		}
	}

	r.ctx.Identity()
	r.ctx.SetRGB(0, 0, 0)
	r.ctx.Clear()

	var warnings []Warning
	for _, pass := range r.plan.Passes {
		switch pass.Stage {
		case passgraph.StageComposite:
			warnings = append(warnings, r.compositeLayer(pass, t)...)
		case passgraph.StageEffectEval:
			if pass.Support == scenegraph.Unsupported {
				warnings = append(warnings, Warning{Node: pass.ID, Reason: pass.Node.SupportReason})
			}
		}
	}

	img := r.ctx.Image()
	if img == nil {
		return nil, warnings, fmt.Errorf("%w: pixmap unavailable", ErrDeviceLost)
	}
	return img, warnings, nil
}

// compositeLayer draws one layer's base image with its transform, opacity,
// and any supported per-effect motion applied.
func (r *Renderer) compositeLayer(pass passgraph.Pass, t float64) []Warning {
	node := pass.Node
	if node.Kind == scenegraph.KindTextElement {
		return []Warning{{Node: pass.ID, Reason: "text elements render in the proxy path only"}}
	}
	if len(node.TextureRefs) == 0 {
		return nil
	}

	img, warning := r.loadImage(pass.ID, node.TextureRefs[0])
	if img == nil {
		if warning != nil {
			return []Warning{*warning}
		}
		return nil
	}

	offsetX, offsetY := motionOffset(node, t)
	width, height := node.Size.X, node.Size.Y
	if width <= 0 || height <= 0 {
		srcW, srcH := img.Bounds()
		width, height = float64(srcW), float64(srcH)
	}

	r.ctx.Push()
	if node.Angle != 0 {
		r.ctx.RotateAbout(node.Angle*math.Pi/180, node.Origin.X, node.Origin.Y)
	}
	r.ctx.DrawImageEx(img, gg.DrawImageOptions{
		X:         node.Origin.X - width/2 + offsetX,
		Y:         node.Origin.Y - height/2 + offsetY,
		DstWidth:  width * node.Scale.X,
		DstHeight: height * node.Scale.Y,
		Opacity:   node.Alpha,
		BlendMode: gg.BlendNormal,
	})
	r.ctx.Pop()
	return nil
}

func (r *Renderer) loadImage(passID, ref string) (*gg.ImageBuf, *Warning) {
	if img, ok := r.images[ref]; ok {
		return img, nil
	}
	path, ok := r.sources[ref]
	if !ok {
		warning := &Warning{Node: passID, Reason: fmt.Sprintf("no decodable source for %s", ref)}
		r.images[ref] = nil
		return nil, warning
	}
	img, err := gg.LoadImage(path)
	if err != nil {
		warning := &Warning{Node: passID, Reason: fmt.Sprintf("decode %s: %v", ref, err)}
		r.images[ref] = nil
		return nil, warning
	}
	r.images[ref] = img
	return img, nil
}

// motionOffset approximates supported effect families with a small
// time-driven translation.
func motionOffset(layer *scenegraph.Node, t float64) (float64, float64) {
	for _, effect := range layer.Children {
		if !effect.Visible || effect.Support == scenegraph.Unsupported {
			continue
		}
		switch effect.Family {
		case "flowimage":
			return 7 * math.Sin(t/7), 7 * math.Cos(t/9)
		case "shake":
			return 3 * math.Sin(t*11), 3 * math.Cos(t*13)
		}
	}
	return 0, 0
}

// Run drives the frame loop at the configured rate until ctx is cancelled,
// delivering each frame to sink. Warnings are logged once per node.
func (r *Renderer) Run(ctx context.Context, sink func(image.Image) error) error {
	ticker := time.NewTicker(time.Second / time.Duration(r.fps))
	defer ticker.Stop()

	seen := map[string]bool{}
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame, warnings, err := r.RenderFrame(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		for _, warning := range warnings {
			if seen[warning.Node] {
				continue
			}
			seen[warning.Node] = true
			r.logger.Warn("partial render", logging.String("node", warning.Node), logging.String("reason", warning.Reason))
		}
		if err := sink(frame); err != nil {
			return err
		}
	}
}
