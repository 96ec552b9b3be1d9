// Package config handles loading and saving the rig tools' settings.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Batch     BatchConfig     `yaml:"batch"`
	Animation AnimationConfig `yaml:"animation"`
	Scene     SceneConfig     `yaml:"scene"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphicsConfig holds window and projection settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOV        float32 `yaml:"fov"` // vertical, degrees
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`

	// Sun placement in degrees.
	SunLongitude float32 `yaml:"sun_longitude"`
	SunLatitude  float32 `yaml:"sun_latitude"`
}

// BatchConfig holds instance batching settings.
type BatchConfig struct {
	Capacity int `yaml:"capacity"`
}

// AnimationConfig holds animation clock settings.
type AnimationConfig struct {
	TimeScale float32 `yaml:"time_scale"`
	MaxStep   float32 `yaml:"max_step"` // seconds, 0 disables clamping
}

// SceneConfig selects what gets loaded and how many copies are spawned.
type SceneConfig struct {
	Rig       string  `yaml:"rig"`
	Anim      string  `yaml:"anim"`
	Instances int     `yaml:"instances"`
	Spacing   float32 `yaml:"spacing"`

	// Screenshots is the viewer's capture directory.
	Screenshots string `yaml:"screenshots"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
			FOV:    60,
			Near:   0.1,
			Far:    500,

			SunLongitude: 45,
			SunLatitude:  60,
		},
		Batch: BatchConfig{
			Capacity: 64,
		},
		Animation: AnimationConfig{
			TimeScale: 1,
			MaxStep:   0.1,
		},
		Scene: SceneConfig{
			Rig:       "assets/rigs/walker.yaml",
			Anim:      "walk",
			Instances: 100,
			Spacing:   3,

			Screenshots: "screenshots",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Graphics.Width <= 0 || c.Graphics.Height <= 0:
		return fmt.Errorf("graphics size %dx%d: %w", c.Graphics.Width, c.Graphics.Height, ErrInvalid)
	case c.Graphics.FOV <= 0 || c.Graphics.FOV >= 180:
		return fmt.Errorf("graphics fov %g: %w", c.Graphics.FOV, ErrInvalid)
	case c.Graphics.Near <= 0 || c.Graphics.Far <= c.Graphics.Near:
		return fmt.Errorf("graphics depth range [%g, %g]: %w", c.Graphics.Near, c.Graphics.Far, ErrInvalid)
	case c.Batch.Capacity <= 0:
		return fmt.Errorf("batch capacity %d: %w", c.Batch.Capacity, ErrInvalid)
	case c.Animation.TimeScale < 0 || c.Animation.MaxStep < 0:
		return fmt.Errorf("animation clock: %w", ErrInvalid)
	case c.Scene.Instances <= 0:
		return fmt.Errorf("scene instances %d: %w", c.Scene.Instances, ErrInvalid)
	case c.Scene.Rig == "":
		return fmt.Errorf("scene rig path is empty: %w", ErrInvalid)
	}
	return nil
}
