package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func closeAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

func TestMockCamera_Playback(t *testing.T) {
	frames := BlankFrames(2, 640, 480)
	defer closeAll(frames)

	cam := NewMockCamera(frames, false)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		if f.Cols() != 640 || f.Rows() != 480 {
			t.Errorf("frame %d is %dx%d, want 640x480", i, f.Cols(), f.Rows())
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("ReadFrame() after playback: err = %v, want ErrNoFrames", err)
	}
	if got := cam.Reads(); got != 2 {
		t.Errorf("Reads() = %d, want 2", got)
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frames := BlankFrames(1, 64, 48)
	defer closeAll(frames)

	cam := NewMockCamera(frames, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_NotOpen(t *testing.T) {
	frames := BlankFrames(1, 64, 48)
	defer closeAll(frames)

	cam := NewMockCamera(frames, true)
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("err = %v, want ErrCameraNotOpen", err)
	}
}

func TestMockCamera_SetFramesAndReset(t *testing.T) {
	first := BlankFrames(1, 64, 48)
	defer closeAll(first)
	second := BlankFrames(2, 32, 24)
	defer closeAll(second)

	cam := NewMockCamera(first, false)
	cam.Open()
	f, _ := cam.ReadFrame()
	f.Close()

	cam.SetFrames(second)
	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after SetFrames: %v", err)
	}
	if f.Cols() != 32 {
		t.Errorf("frame width = %d, want 32", f.Cols())
	}
	f.Close()

	cam.Reset()
	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d after Reset: %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_FPS(t *testing.T) {
	cam := NewMockCamera(nil, false)
	if got := cam.FPS(); got != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", got, DefaultFPS)
	}
	cam.SetFPS(12)
	cam.SetFPS(0)
	if got := cam.FPS(); got != 12 {
		t.Errorf("FPS() = %d, want 12", got)
	}
}

func TestEncodeJPEG(t *testing.T) {
	frames := BlankFrames(1, 64, 48)
	defer closeAll(frames)

	data, err := EncodeJPEG(frames[0])
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("output does not start with a JPEG SOI marker")
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := EncodeJPEG(&empty); err == nil {
		t.Error("expected error for an empty frame")
	}
	if _, err := EncodeJPEG(nil); err == nil {
		t.Error("expected error for a nil frame")
	}
}
