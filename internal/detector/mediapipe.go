package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	serviceScript = "mediapipe_service.py"
	// scriptEnv points at the landmark service script.
	scriptEnv = "MUDRA_MEDIAPIPE_SCRIPT"
)

// ErrServiceNotFound is returned when the landmark service script cannot be
// located.
var ErrServiceNotFound = errors.New("mediapipe service not found")

// MediaPipeDetector runs the MediaPipe hand landmarker in a Python child
// process. Each frame is written to its stdin as a big-endian uint32 length
// followed by JPEG bytes; the service answers with one JSON line.
//
// The child is started on the first frame and stopped after
// Config.IdleTimeout without frames, so a paused tracker costs nothing.
type MediaPipeDetector struct {
	config Config
	script string
	python string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	idle   *time.Timer
}

// NewMediaPipeDetector locates the service and returns a detector for it.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	config = config.withDefaults()

	script := config.Script
	if script == "" {
		script = os.Getenv(scriptEnv)
	}
	if script == "" {
		script = locate(filepath.Join("scripts", serviceScript))
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
	}

	python := config.Python
	if python == "" {
		python = locate(filepath.Join("venv", "bin", "python"))
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{config: config, script: script, python: python}, nil
}

// Detect sends frame to the service and returns the hands it found.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.start(); err != nil {
		return nil, err
	}

	if _, err := d.stdin.Write(frameMessage(buf.GetBytes())); err != nil {
		d.stop()
		return nil, fmt.Errorf("write frame: %w", err)
	}
	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.stop()
		return nil, fmt.Errorf("read landmarks: %w", err)
	}
	d.touch()

	return decodeHands(line, d.config.DetectionConfidence)
}

// Close stops the service.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

// start must be called with d.mu held.
func (d *MediaPipeDetector) start() error {
	if d.cmd != nil {
		return nil
	}

	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.DetectionConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.TrackingConfidence, 'f', 2, 64),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	return nil
}

// stop must be called with d.mu held.
func (d *MediaPipeDetector) stop() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.cmd == nil {
		return nil
	}

	d.stdin.Close()
	err := d.cmd.Wait()
	d.cmd, d.stdin, d.stdout = nil, nil, nil
	return err
}

// touch re-arms the idle timer. Must be called with d.mu held.
func (d *MediaPipeDetector) touch() {
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.stop()
	})
}

// locate finds rel under the working directory, its parents, the
// executable's directory or ~/.mudra.
func locate(rel string) string {
	dirs := []string{".", "..", filepath.Join("..", "..")}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".mudra"))
	}

	for _, dir := range dirs {
		p := filepath.Join(dir, rel)
		if _, err := os.Stat(p); err == nil {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// frameMessage prefixes data with its length.
func frameMessage(data []byte) []byte {
	msg := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(msg, uint32(len(data)))
	copy(msg[4:], data)
	return msg
}

type serviceResponse struct {
	Hands []struct {
		Points     []Point3D `json:"points"`
		Handedness string    `json:"handedness"`
		Score      float64   `json:"score"`
	} `json:"hands"`
	Error string `json:"error,omitempty"`
}

// decodeHands parses one service line. Hands below minScore or with a
// short landmark list are dropped; the rest are ordered by score.
func decodeHands(line []byte, minScore float64) ([]HandLandmarks, error) {
	var resp serviceResponse
	if err := json.Unmarshal(bytes.TrimSpace(line), &resp); err != nil {
		return nil, fmt.Errorf("parse landmarks: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", resp.Error)
	}

	hands := make([]HandLandmarks, 0, len(resp.Hands))
	for _, h := range resp.Hands {
		if len(h.Points) < NumLandmarks || h.Score < minScore {
			continue
		}
		lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
		copy(lm.Points[:], h.Points)
		hands = append(hands, lm)
	}
	sort.SliceStable(hands, func(i, j int) bool { return hands[i].Score > hands[j].Score })
	return hands, nil
}
