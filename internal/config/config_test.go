package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 || cfg.Graphics.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if cfg.Batch.Capacity != 64 {
		t.Errorf("expected batch capacity 64, got %d", cfg.Batch.Capacity)
	}
	if cfg.Animation.TimeScale != 1 {
		t.Errorf("expected time scale 1, got %f", cfg.Animation.TimeScale)
	}
	if cfg.Scene.Anim != "walk" {
		t.Errorf("expected anim 'walk', got %s", cfg.Scene.Anim)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rig.yaml")
	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fov: 45
batch:
  capacity: 128
animation:
  time_scale: 0.5
scene:
  rig: "rigs/crab.yaml"
  instances: 400
logging:
  level: "debug"
  log_file: "rig.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.FOV != 45 {
		t.Errorf("graphics not loaded: %+v", cfg.Graphics)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Graphics.Near != 0.1 || cfg.Animation.MaxStep != 0.1 {
		t.Errorf("defaults overwritten: near %f max step %f", cfg.Graphics.Near, cfg.Animation.MaxStep)
	}
	if cfg.Batch.Capacity != 128 {
		t.Errorf("expected capacity 128, got %d", cfg.Batch.Capacity)
	}
	if cfg.Animation.TimeScale != 0.5 {
		t.Errorf("expected time scale 0.5, got %f", cfg.Animation.TimeScale)
	}
	if cfg.Scene.Rig != "rigs/crab.yaml" || cfg.Scene.Instances != 400 {
		t.Errorf("scene not loaded: %+v", cfg.Scene)
	}
	if cfg.Logging.LogFile != "rig.log" {
		t.Errorf("expected log file 'rig.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax":  "graphics:\n  width: not a number\n  invalid syntax here\n",
		"unknown": "audio:\n  muted: true\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Errorf("empty file should load: %v", err)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/rig.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
		{"fov", func(c *Config) { c.Graphics.FOV = 180 }},
		{"near", func(c *Config) { c.Graphics.Near = 0 }},
		{"far before near", func(c *Config) { c.Graphics.Far = 0.05 }},
		{"capacity", func(c *Config) { c.Batch.Capacity = 0 }},
		{"time scale", func(c *Config) { c.Animation.TimeScale = -1 }},
		{"instances", func(c *Config) { c.Scene.Instances = -4 }},
		{"rig", func(c *Config) { c.Scene.Rig = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", tmpDir)
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "rig.yaml"), []byte("batch:\n  capacity: 8\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find rig.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "scene flags",
			setup: func() {
				*flagRig = "rigs/bird.yaml"
				*flagAnim = "flap"
				*flagInstances = 12
			},
			verify: func(cfg *Config) {
				if cfg.Scene.Rig != "rigs/bird.yaml" || cfg.Scene.Anim != "flap" || cfg.Scene.Instances != 12 {
					t.Errorf("scene flags not applied: %+v", cfg.Scene)
				}
			},
			teardown: func() {
				*flagRig, *flagAnim, *flagInstances = "", "", 0
			},
		},
		{
			name: "engine flags",
			setup: func() {
				*flagCapacity = 16
				*flagTimeScale = 2
			},
			verify: func(cfg *Config) {
				if cfg.Batch.Capacity != 16 {
					t.Errorf("expected capacity 16, got %d", cfg.Batch.Capacity)
				}
				if cfg.Animation.TimeScale != 2 {
					t.Errorf("expected time scale 2, got %f", cfg.Animation.TimeScale)
				}
			},
			teardown: func() {
				*flagCapacity, *flagTimeScale = 0, 0
			},
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() { *flagWidth, *flagHeight = 0, 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rig.yaml")
	cfg := Default()
	cfg.Scene.Instances = 7
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}
