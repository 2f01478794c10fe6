// Package app wires the camera, hand detector, drawing engine and storage
// into a running application.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/canvas"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/generate"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/mode"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/ui"
)

// brushSetting is the settings key the brush is persisted under.
const brushSetting = "brush"

// Config holds the collaborators and parameters of the application.
type Config struct {
	Engine    engine.Config
	Generator generate.Generator
	Camera    capture.Camera
	// Detector defaults to MediaPipe, falling back to a mock detector.
	Detector detector.Detector
	// DetectorConfig tunes the default MediaPipe detector.
	DetectorConfig detector.Config
	// Store is optional. Without it nothing is persisted.
	Store *store.Store
	// FrameInterval is the capture period. Defaults to 30 fps.
	FrameInterval time.Duration
	// ExportDir receives images saved from the result overlay.
	ExportDir string
}

// FrameListener receives every frame output, on the pipeline goroutine.
type FrameListener func(engine.FrameOutput)

// App is the running application.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	ctrl     *mode.Controller
	engine   *engine.Engine
	toolbar  *ui.Toolbar
	ctx      context.Context
	cancel   context.CancelFunc

	// frameMu serialises Engine.Frame with readers of the surface.
	frameMu sync.Mutex

	mu          sync.RWMutex
	enabled     bool
	stopCh      chan struct{}
	done        chan struct{}
	last        engine.FrameOutput
	latestJPEG  []byte
	listeners   []FrameListener
	shownID     uuid.UUID
	storedBrush canvas.Brush
	saving      sync.WaitGroup
}

// New creates an App. The pipeline is not started.
func New(config Config) *App {
	if config.FrameInterval <= 0 {
		config.FrameInterval = time.Second / capture.DefaultFPS
	}
	gen := config.Generator
	if gen == nil {
		gen = generate.NewMockGenerator()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config:  config,
		camera:  config.Camera,
		ctrl:    mode.NewController(gen),
		ctx:     ctx,
		cancel:  cancel,
		enabled: true,
	}

	if config.Detector != nil {
		a.detector = config.Detector
	} else if mp, err := detector.NewMediaPipeDetector(config.DetectorConfig); err == nil {
		a.detector = mp
		log.Println("using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	engCfg := config.Engine
	if b, ok := a.loadBrush(); ok {
		engCfg.Brush = b
	}
	a.storedBrush = engCfg.Brush

	controls := engine.NewControls(engCfg.Brush)
	a.toolbar = ui.NewToolbar(engCfg.Screen, controls)
	a.engine = engine.New(engCfg, a.ctrl,
		engine.WithControls(controls),
		engine.WithWidgets(a.toolbar),
		engine.WithContext(ctx),
	)
	a.toolbar.SetOnSave(a.saveAsync)
	a.ctrl.OnEvent(a.recordEvent)
	a.last = engine.FrameOutput{Mode: mode.Idle, Brush: engCfg.Brush, View: canvas.ViewAI}

	return a
}

func (a *App) loadBrush() (canvas.Brush, bool) {
	if a.config.Store == nil {
		return canvas.Brush{}, false
	}
	var b canvas.Brush
	if err := a.config.Store.Settings().GetJSON(brushSetting, &b); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("failed to load brush: %v", err)
		}
		return canvas.Brush{}, false
	}
	if err := b.Validate(); err != nil {
		log.Printf("ignoring stored brush: %v", err)
		return canvas.Brush{}, false
	}
	return b, true
}

// SetEnabled pauses or resumes frame processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	was := a.enabled
	a.enabled = enabled
	a.mu.Unlock()

	if enabled && !was {
		a.frameMu.Lock()
		a.engine.Resync()
		a.frameMu.Unlock()
	}
}

// IsEnabled reports whether frames are processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Start opens the camera and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if a.camera == nil {
		return errors.New("no camera configured")
	}
	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Println("pipeline started")
	return nil
}

// Stop halts the pipeline, waits for pending saves and releases the
// camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}
	a.cancel()
	a.saving.Wait()
	a.flushBrush()

	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			log.Printf("error closing camera: %v", err)
		}
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("error closing detector: %v", err)
		}
	}
	log.Println("pipeline stopped")
}

// OnFrame registers a listener for frame outputs.
func (a *App) OnFrame(l FrameListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// Step feeds one observation into the engine and publishes the output.
func (a *App) Step(now time.Time, hand *detector.HandLandmarks) engine.FrameOutput {
	a.frameMu.Lock()
	out := a.engine.Frame(now, hand)
	a.frameMu.Unlock()

	a.mu.Lock()
	a.last = out
	listeners := append([]FrameListener(nil), a.listeners...)
	persist := out.Brush != a.storedBrush && !dragging(out)
	if persist {
		a.storedBrush = out.Brush
	}
	a.mu.Unlock()

	if persist {
		a.persistBrush(out.Brush)
	}
	for _, l := range listeners {
		l(out)
	}
	return out
}

// dragging reports whether a pinch is operating a toolbar widget. Brush
// changes made by a drag are persisted once the pinch is released.
func dragging(out engine.FrameOutput) bool {
	return out.UICapture && out.Label == gesture.LabelDraw
}

// flushBrush persists a brush change still held back by a drag.
func (a *App) flushBrush() {
	a.mu.Lock()
	b := a.last.Brush
	pending := b != a.storedBrush
	if pending {
		a.storedBrush = b
	}
	a.mu.Unlock()

	if pending {
		a.persistBrush(b)
	}
}

func (a *App) persistBrush(b canvas.Brush) {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Settings().SetJSON(brushSetting, b); err != nil {
		log.Printf("failed to persist brush: %v", err)
	}
}

// State returns the most recent frame output.
func (a *App) State() engine.FrameOutput {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// LatestJPEG returns the most recent camera frame, JPEG encoded.
func (a *App) LatestJPEG() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latestJPEG
}

func (a *App) setLatestJPEG(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.latestJPEG = b
}

// Controls returns the request channel into the frame loop.
func (a *App) Controls() *engine.Controls {
	return a.engine.Controls()
}

// Controller returns the mode controller.
func (a *App) Controller() *mode.Controller {
	return a.ctrl
}

// Toolbar returns the on-screen toolbar.
func (a *App) Toolbar() *ui.Toolbar {
	return a.toolbar
}

// Store returns the store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Camera returns the camera.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Export renders the canvas in view v as PNG.
func (a *App) Export(v canvas.View) ([]byte, error) {
	a.frameMu.Lock()
	img, err := a.engine.Export(v)
	a.frameMu.Unlock()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := canvas.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveExport writes the canvas in the current result view to ExportDir and
// returns the file path.
func (a *App) SaveExport() (string, error) {
	a.frameMu.Lock()
	view := a.engine.View()
	a.frameMu.Unlock()

	data, err := a.Export(view)
	if err != nil {
		return "", err
	}

	dir := a.config.ExportDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("mudra-%s-%s.png", now.Format("20060102-150405.000"), view))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	if a.config.Store != nil {
		a.mu.RLock()
		id := a.shownID
		a.mu.RUnlock()
		if _, err := a.config.Store.Generations().AddExport(id, string(view), path, now); err != nil {
			log.Printf("failed to record export: %v", err)
		}
	}
	log.Printf("saved %s", path)
	return path, nil
}

// saveAsync runs SaveExport off the frame goroutine, which holds frameMu
// while the toolbar is pressed.
func (a *App) saveAsync() {
	a.saving.Add(1)
	go func() {
		defer a.saving.Done()
		if _, err := a.SaveExport(); err != nil {
			log.Printf("save failed: %v", err)
		}
	}()
}

// recordEvent persists mode events. It runs on the frame goroutine.
func (a *App) recordEvent(ev mode.Event) {
	switch ev.Kind {
	case mode.EventSucceeded:
		a.mu.Lock()
		a.shownID = ev.ID
		a.mu.Unlock()
	case mode.EventClosed:
		a.mu.Lock()
		a.shownID = uuid.Nil
		a.mu.Unlock()
	}

	if ev.Err != nil {
		log.Printf("generation %s failed: %v", ev.ID, ev.Err)
	}

	s := a.config.Store
	if s == nil {
		return
	}
	gens := s.Generations()

	var err error
	switch ev.Kind {
	case mode.EventStarted:
		_, err = gens.Create(ev.ID, ev.Snapshot, ev.At)
	case mode.EventSucceeded:
		url := ""
		if ev.Result != nil {
			url = ev.Result.URL
		}
		err = gens.Finish(ev.ID, store.StatusSucceeded, url, "", ev.At)
	case mode.EventFailed:
		msg := ev.Err.Error()
		err = gens.Finish(ev.ID, store.StatusFailed, "", msg, ev.At)
		if errors.Is(err, store.ErrNotFound) {
			// The snapshot failed before the round was started.
			if _, err = gens.Create(ev.ID, nil, ev.At); err == nil {
				err = gens.Finish(ev.ID, store.StatusFailed, "", msg, ev.At)
			}
		}
	case mode.EventClosed:
		if ev.ID != uuid.Nil {
			err = gens.Close(ev.ID, ev.At)
		}
	}
	if err != nil {
		log.Printf("failed to record %s event: %v", ev.Kind, err)
	}
}

// Await blocks until the pending generation round resolves.
func (a *App) Await(ctx context.Context) error {
	return a.ctrl.Await(ctx)
}
