// Package main runs the rig scene headless at a fixed time step and
// reports what the frame loop did.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/config"
	"github.com/Faultbox/midgard-rig/internal/engine/batch"
	"github.com/Faultbox/midgard-rig/internal/engine/bounds"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/internal/world"
)

var (
	flagFrames = flag.Int("frames", 600, "Number of frames to simulate")
	flagStep   = flag.Float64("step", 1.0/60, "Seconds per frame")
	flagAspect = flag.Float64("aspect", 16.0/9, "Viewport aspect ratio used for culling")
)

// counter stands in for the GPU: it counts uploads, instanced draws and
// direct draws.
type counter struct {
	uploads   int
	bytes     int
	draws     int
	instances int
	direct    int
}

func (c *counter) UploadInstances(block []byte) error {
	c.uploads++
	c.bytes += len(block)
	return nil
}

func (c *counter) draw(instances int) error {
	c.draws++
	c.instances += instances
	return nil
}

func (c *counter) DrawDirect(*model.Mesh, *transform.Array) error {
	c.direct++
	return nil
}

var (
	_ batch.Uploader = (*counter)(nil)
	_ model.Drawer   = (*counter)(nil)
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	res, err := simulate(cfg, *flagFrames, float32(*flagStep), float32(*flagAspect))
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}

	lo, hi := res.bounds.Min.Array(), res.bounds.Max.Array()
	logger.Info("simulation done",
		zap.String("rig", res.rig),
		zap.Int("frames", res.frames),
		zap.Duration("wall", res.wall),
		zap.Int("models_per_frame", res.total.Models/max(res.frames, 1)),
		zap.Int("culled", res.total.Culled),
		zap.Int("batches", res.total.Batches),
		zap.Int("instances", res.total.Instances),
		zap.Int("uploads", res.gpu.uploads),
		zap.Int("upload_bytes", res.gpu.bytes),
		zap.Int("cached_anims", res.cached),
		zap.Float32s("bounds_min", lo[:]),
		zap.Float32s("bounds_max", hi[:]),
	)
}

type result struct {
	rig    string
	frames int
	total  scene.Stats
	gpu    counter
	cached int
	bounds bounds.Box
	wall   time.Duration
}

func simulate(cfg *config.Config, frames int, step, aspect float32) (*result, error) {
	proto, tpl, err := world.Load(cfg)
	if err != nil {
		return nil, err
	}

	res := &result{rig: proto.Name, frames: frames}
	w, err := world.New(cfg, proto, tpl, &res.gpu, res.gpu.draw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	for i := 0; i < frames; i++ {
		st, err := w.Step(step, aspect, &res.gpu)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		res.total.Models += st.Models
		res.total.Culled += st.Culled
		res.total.Direct += st.Direct
		res.total.Batches += st.Batches
		res.total.Instances += st.Instances
	}
	res.wall = time.Since(start)
	res.cached = w.Scene.Cache().Len()
	res.bounds = w.Scene.Bounds()
	return res, nil
}
