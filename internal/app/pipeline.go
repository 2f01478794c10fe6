package app

import (
	"fmt"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
)

// runPipeline reads a frame every FrameInterval, detects hands and feeds the
// first hand, or nil when none is visible, to the engine. Read and detection
// errors are logged and the frame is skipped.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("error reading frame: %v", err)
				continue
			}

			if _, err := a.ProcessFrame(now, frame); err != nil {
				log.Printf("error processing frame: %v", err)
			}
			frame.Close()
		}
	}
}

// ProcessFrame runs detection on frame and steps the engine with the
// result. It also refreshes the preview image. The caller keeps ownership
// of frame.
func (a *App) ProcessFrame(now time.Time, frame *gocv.Mat) (engine.FrameOutput, error) {
	if jpeg, err := capture.EncodeJPEG(frame); err == nil {
		a.setLatestJPEG(jpeg)
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		return engine.FrameOutput{}, fmt.Errorf("detecting hands: %w", err)
	}

	var hand *detector.HandLandmarks
	if len(hands) > 0 {
		hand = &hands[0]
	}
	return a.Step(now, hand), nil
}
