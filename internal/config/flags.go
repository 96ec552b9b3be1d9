package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagRig        = flag.String("rig", "", "Rig file to load")
	flagAnim       = flag.String("anim", "", "Animation to play")
	flagInstances  = flag.Int("instances", 0, "Number of instances to spawn")
	flagCapacity   = flag.Int("batch", 0, "Instance batch capacity")
	flagTimeScale  = flag.Float64("time-scale", 0, "Animation time scale")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRig != "" {
		cfg.Scene.Rig = *flagRig
	}
	if *flagAnim != "" {
		cfg.Scene.Anim = *flagAnim
	}
	if *flagInstances > 0 {
		cfg.Scene.Instances = *flagInstances
	}
	if *flagCapacity > 0 {
		cfg.Batch.Capacity = *flagCapacity
	}
	if *flagTimeScale > 0 {
		cfg.Animation.TimeScale = float32(*flagTimeScale)
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
}
