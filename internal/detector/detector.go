package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector finds hands in a camera frame.
type Detector interface {
	// Detect returns the hands found in frame, most confident first. An
	// empty slice means no hand is visible.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	Close() error
}

// Config tunes the MediaPipe landmark service.
type Config struct {
	// MaxHands is passed to the service. Only the first hand draws.
	MaxHands int

	// DetectionConfidence and TrackingConfidence are MediaPipe's thresholds
	// in [0, 1]. Hands scoring below DetectionConfidence are dropped.
	DetectionConfidence float64
	TrackingConfidence  float64

	// Script and Python override service discovery when set.
	Script string
	Python string

	// IdleTimeout stops the service after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns the single-hand drawing setup.
func DefaultConfig() Config {
	return Config{
		MaxHands:            1,
		DetectionConfidence: 0.6,
		TrackingConfidence:  0.6,
		IdleTimeout:         30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxHands <= 0 {
		c.MaxHands = d.MaxHands
	}
	if c.DetectionConfidence <= 0 {
		c.DetectionConfidence = d.DetectionConfidence
	}
	if c.TrackingConfidence <= 0 {
		c.TrackingConfidence = d.TrackingConfidence
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	return c
}
