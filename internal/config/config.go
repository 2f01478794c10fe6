// Package config loads the application configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/generate"
	"github.com/ayusman/mudra/internal/motion"
)

// maxFileSize bounds the config file (1MB).
const maxFileSize = 1 * 1024 * 1024

// Config is the root configuration.
type Config struct {
	Canvas     CanvasConfig     `json:"canvas"`
	Screen     ScreenConfig     `json:"screen"`
	Gesture    GestureConfig    `json:"gesture"`
	Motion     motion.Config    `json:"motion"`
	Hold       HoldConfig       `json:"hold"`
	Brush      BrushConfig      `json:"brush"`
	Generation GenerationConfig `json:"generation"`
	Camera     CameraConfig     `json:"camera"`
	Tracking   TrackingConfig   `json:"tracking"`
	Server     ServerConfig     `json:"server"`
	DataDir    string           `json:"data_dir"`
}

type CanvasConfig struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	History int `json:"history"`
}

// ScreenConfig is the container the cursor is mapped into.
type ScreenConfig struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type GestureConfig struct {
	PinchRatio    float64 `json:"pinch_ratio"`
	CurlTolerance float64 `json:"curl_tolerance"`
}

type HoldConfig struct {
	Duration string `json:"duration"` // duration string like "3s"
}

type BrushConfig struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

type GenerationConfig struct {
	Endpoint  string  `json:"endpoint"`
	Model     string  `json:"model"`
	Prompt    string  `json:"prompt"`
	Strength  float64 `json:"strength"`
	Steps     int     `json:"steps"`
	ImageSize string  `json:"image_size"`
	APIKeyEnv string  `json:"api_key_env"`
	Timeout   string  `json:"timeout"` // duration string like "120s"
	// Mock answers every round trip locally instead of calling the service.
	Mock bool `json:"mock"`
}

type CameraConfig struct {
	Device int `json:"device"`
	FPS    int `json:"fps"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TrackingConfig configures the MediaPipe landmark service.
type TrackingConfig struct {
	MaxHands     int     `json:"max_hands"`
	MinDetection float64 `json:"min_detection"`
	MinTracking  float64 `json:"min_tracking"`
	Script       string  `json:"script"`
	Python       string  `json:"python"`
	IdleTimeout  string  `json:"idle_timeout"`
}

type ServerConfig struct {
	Addr      string `json:"addr"`
	StaticDir string `json:"static_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	gen := generate.DefaultConfig()
	return &Config{
		Canvas:  CanvasConfig{Width: 1248, Height: 832, History: canvas.DefaultHistory},
		Screen:  ScreenConfig{Width: 1920, Height: 1080},
		Gesture: GestureConfig{PinchRatio: 0.35, CurlTolerance: 0.02},
		Motion:  motion.DefaultConfig(),
		Hold:    HoldConfig{Duration: "3s"},
		Brush:   BrushConfig{Color: canvas.DefaultBrush().Color, Width: canvas.DefaultBrush().Width},
		Generation: GenerationConfig{
			Endpoint:  gen.Endpoint,
			Model:     gen.Model,
			Prompt:    gen.Prompt,
			Strength:  gen.Strength,
			Steps:     gen.Steps,
			ImageSize: gen.ImageSize,
			APIKeyEnv: gen.APIKeyEnv,
			Timeout:   "120s",
		},
		Camera: CameraConfig{Device: 0, FPS: 30, Width: 640, Height: 480},
		Tracking: TrackingConfig{
			MaxHands:     1,
			MinDetection: 0.6,
			MinTracking:  0.6,
			IdleTimeout:  "30s",
		},
		Server:  ServerConfig{Addr: ":8080", StaticDir: "web"},
		DataDir: "~/.mudra",
	}
}

// Load reads a Config from a JSON file. The file must have a .json extension
// and be under 1MB. Fields omitted from the file keep their defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.History < 1 {
		return fmt.Errorf("canvas.history must be at least 1, got %d", c.Canvas.History)
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %vx%v", c.Screen.Width, c.Screen.Height)
	}
	if c.Gesture.PinchRatio <= 0 || c.Gesture.PinchRatio > 1 {
		return fmt.Errorf("gesture.pinch_ratio must be in (0, 1], got %v", c.Gesture.PinchRatio)
	}
	if m := c.Motion.Margin; m < 0 || m >= 0.5 {
		return fmt.Errorf("motion.margin must be in [0, 0.5), got %v", m)
	}
	if c.Motion.MinScale <= 0 || c.Motion.MinScale > c.Motion.MaxScale {
		return fmt.Errorf("motion scale range [%v, %v] is invalid", c.Motion.MinScale, c.Motion.MaxScale)
	}
	if _, err := parseDuration("hold.duration", c.Hold.Duration); err != nil {
		return err
	}
	if _, err := parseDuration("generation.timeout", c.Generation.Timeout); err != nil {
		return err
	}
	if err := c.brush().Validate(); err != nil {
		return fmt.Errorf("brush: %w", err)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}
	if c.Tracking.MaxHands < 1 {
		return fmt.Errorf("tracking.max_hands must be at least 1, got %d", c.Tracking.MaxHands)
	}
	for field, v := range map[string]float64{
		"tracking.min_detection": c.Tracking.MinDetection,
		"tracking.min_tracking":  c.Tracking.MinTracking,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", field, v)
		}
	}
	if _, err := parseDuration("tracking.idle_timeout", c.Tracking.IdleTimeout); err != nil {
		return err
	}
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, s)
	}
	return d, nil
}

func (c *Config) brush() canvas.Brush {
	return canvas.Brush{Color: c.Brush.Color, Width: c.Brush.Width, Mode: canvas.ModeDraw}
}

// HoldDuration returns the hold-to-confirm duration.
func (c *Config) HoldDuration() time.Duration {
	d, err := parseDuration("hold.duration", c.Hold.Duration)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// Engine returns the engine parameters.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		CanvasWidth:   c.Canvas.Width,
		CanvasHeight:  c.Canvas.Height,
		History:       c.Canvas.History,
		Screen:        r2.Vec{X: c.Screen.Width, Y: c.Screen.Height},
		PinchRatio:    c.Gesture.PinchRatio,
		CurlTolerance: c.Gesture.CurlTolerance,
		Motion:        c.Motion,
		Hold:          c.HoldDuration(),
		Brush:         c.brush(),
	}
}

// Generate returns the generation client parameters.
func (c *Config) Generate() generate.Config {
	timeout, err := parseDuration("generation.timeout", c.Generation.Timeout)
	if err != nil {
		timeout = 120 * time.Second
	}
	return generate.Config{
		Endpoint:  c.Generation.Endpoint,
		Model:     c.Generation.Model,
		Prompt:    c.Generation.Prompt,
		Strength:  c.Generation.Strength,
		Steps:     c.Generation.Steps,
		ImageSize: c.Generation.ImageSize,
		APIKeyEnv: c.Generation.APIKeyEnv,
		Timeout:   timeout,
	}
}

// Detector returns the landmark service parameters.
func (c *Config) Detector() detector.Config {
	idle, err := parseDuration("tracking.idle_timeout", c.Tracking.IdleTimeout)
	if err != nil {
		idle = 30 * time.Second
	}
	return detector.Config{
		MaxHands:            c.Tracking.MaxHands,
		DetectionConfidence: c.Tracking.MinDetection,
		TrackingConfidence:  c.Tracking.MinTracking,
		Script:              c.Tracking.Script,
		Python:              c.Tracking.Python,
		IdleTimeout:         idle,
	}
}

// FrameInterval returns the capture interval for the configured FPS.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Camera.FPS)
}

// ResolveDataDir returns DataDir with a leading "~" expanded.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return filepath.Clean(dir), nil
}
