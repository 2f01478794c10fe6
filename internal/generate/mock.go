package generate

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// MockGenerator is a test implementation of Generator. It returns the
// configured result or error, optionally blocking until released.
type MockGenerator struct {
	mu      sync.Mutex
	result  *Result
	err     error
	gate    chan struct{}
	calls   int
	lastPNG []byte
}

// NewMockGenerator creates a MockGenerator that answers immediately with a
// small solid image.
func NewMockGenerator() *MockGenerator {
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}), image.Point{}, draw.Src)
	return &MockGenerator{result: &Result{URL: "mock://result.png", Image: img}}
}

// SetResult sets the result returned by Generate.
func (m *MockGenerator) SetResult(r *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = r
}

// SetError sets the error returned by Generate.
func (m *MockGenerator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Block makes subsequent Generate calls wait until Release.
func (m *MockGenerator) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
}

// Release unblocks pending and future Generate calls.
func (m *MockGenerator) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Calls returns how many times Generate was called.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPNG returns the sketch passed to the last Generate call.
func (m *MockGenerator) LastPNG() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPNG
}

// Generate returns the configured result or error.
func (m *MockGenerator) Generate(ctx context.Context, png []byte) (*Result, error) {
	m.mu.Lock()
	m.calls++
	m.lastPNG = png
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return nil, ErrEmptyResult
	}
	return m.result, nil
}
