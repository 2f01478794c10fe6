// Package canvas implements the fixed-size raster drawing surface with its
// bounded undo history, and the composition of drawings with generated
// images.
package canvas

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultHistory is the default number of retained history entries.
const DefaultHistory = 30

// ErrUnallocated is returned by operations that need pixels on a surface
// that was never allocated.
var ErrUnallocated = errors.New("canvas: surface not allocated")

// Surface is a fixed-size RGBA bitmap with linear undo history. The zero
// value and a nil *Surface are unallocated: every mutation is a no-op.
// A Surface is not safe for concurrent use.
type Surface struct {
	bitmap *image.RGBA
	gc     *gg.Context

	history  []*image.RGBA
	index    int
	capacity int

	prev     *r2.Vec
	stroking bool
}

// New allocates a transparent width×height surface whose history holds at
// most capacity entries, seeded with the blank bitmap.
func New(width, height, capacity int) *Surface {
	if capacity < 1 {
		capacity = DefaultHistory
	}
	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	s := &Surface{
		bitmap:   bitmap,
		gc:       gg.NewContextForRGBA(bitmap),
		capacity: capacity,
	}
	s.history = []*image.RGBA{cloneRGBA(bitmap)}
	return s
}

// Allocated reports whether the surface has a bitmap.
func (s *Surface) Allocated() bool {
	return s != nil && s.bitmap != nil
}

// Size returns the bitmap size in pixels.
func (s *Surface) Size() r2.Vec {
	if !s.Allocated() {
		return r2.Vec{}
	}
	b := s.bitmap.Bounds()
	return r2.Vec{X: float64(b.Dx()), Y: float64(b.Dy())}
}

// Update advances the stroke state machine by one frame. While active, the
// screen cursor is mapped into bitmap pixels through rect (the on-screen box
// of the canvas) and joined to the previous point with brush. The first
// active frame only records the point. The frame on which active drops
// commits the stroke as one history entry.
func (s *Surface) Update(active bool, cursor *r2.Vec, rect r2.Box, brush Brush) {
	if !s.Allocated() {
		return
	}

	if !active {
		if s.stroking {
			s.commit()
		}
		s.stroking = false
		s.prev = nil
		return
	}

	s.stroking = true
	if cursor == nil {
		s.prev = nil
		return
	}

	pt, ok := s.local(*cursor, rect)
	if !ok {
		return
	}
	if s.prev != nil {
		s.segment(*s.prev, pt, brush)
	}
	s.prev = &pt
}

// Stroking reports whether a stroke is in progress.
func (s *Surface) Stroking() bool {
	return s.Allocated() && s.stroking
}

func (s *Surface) local(cursor r2.Vec, rect r2.Box) (r2.Vec, bool) {
	size := rect.Size()
	if size.X <= 0 || size.Y <= 0 {
		return r2.Vec{}, false
	}
	bm := s.Size()
	d := r2.Sub(cursor, rect.Min)
	return r2.Vec{X: d.X * bm.X / size.X, Y: d.Y * bm.Y / size.Y}, true
}

func (s *Surface) segment(from, to r2.Vec, brush Brush) {
	if brush.Mode == ModeErase {
		s.erase(from, to, brush.Width)
		return
	}

	s.gc.SetColor(brush.RGBA())
	s.gc.SetLineWidth(brush.Width)
	s.gc.SetLineCapRound()
	s.gc.SetLineJoinRound()
	s.gc.DrawLine(from.X, from.Y, to.X, to.Y)
	s.gc.Stroke()
}

// erase removes coverage under the segment: the stroke is rendered into an
// alpha mask and every covered pixel is scaled by the inverse coverage.
func (s *Surface) erase(from, to r2.Vec, width float64) {
	pad := width/2 + 2
	r := image.Rect(
		int(math.Floor(math.Min(from.X, to.X)-pad)),
		int(math.Floor(math.Min(from.Y, to.Y)-pad)),
		int(math.Ceil(math.Max(from.X, to.X)+pad)),
		int(math.Ceil(math.Max(from.Y, to.Y)+pad)),
	).Intersect(s.bitmap.Bounds())
	if r.Empty() {
		return
	}

	scratch := gg.NewContext(r.Dx(), r.Dy())
	scratch.Translate(-float64(r.Min.X), -float64(r.Min.Y))
	scratch.SetColor(color.Black)
	scratch.SetLineWidth(width)
	scratch.SetLineCapRound()
	scratch.SetLineJoinRound()
	scratch.DrawLine(from.X, from.Y, to.X, to.Y)
	scratch.Stroke()

	keep := scratch.AsMask()
	for i, a := range keep.Pix {
		keep.Pix[i] = 255 - a
	}

	xdraw.DrawMask(s.bitmap, r, s.bitmap, r.Min, keep, image.Point{}, xdraw.Src)
}

func (s *Surface) commit() {
	s.history = append(s.history[:s.index+1], cloneRGBA(s.bitmap))
	if len(s.history) > s.capacity {
		s.history[0] = nil
		s.history = s.history[1:]
	}
	s.index = len(s.history) - 1
}

func (s *Surface) restore(i int) {
	copy(s.bitmap.Pix, s.history[i].Pix)
	s.index = i
}

// Undo restores the previous history entry. It reports false at the oldest
// entry.
func (s *Surface) Undo() bool {
	if !s.Allocated() || s.index == 0 {
		return false
	}
	s.restore(s.index - 1)
	return true
}

// Redo restores the next history entry. It reports false at the newest
// entry.
func (s *Surface) Redo() bool {
	if !s.Allocated() || s.index >= len(s.history)-1 {
		return false
	}
	s.restore(s.index + 1)
	return true
}

// Clear blanks the bitmap and commits the blank state.
func (s *Surface) Clear() {
	if !s.Allocated() {
		return
	}
	clear(s.bitmap.Pix)
	s.prev = nil
	s.commit()
}

// HistoryLen returns the number of retained history entries.
func (s *Surface) HistoryLen() int {
	if !s.Allocated() {
		return 0
	}
	return len(s.history)
}

// HistoryIndex returns the index of the entry the bitmap currently shows.
func (s *Surface) HistoryIndex() int {
	if !s.Allocated() {
		return 0
	}
	return s.index
}

// CanUndo reports whether Undo would change the bitmap.
func (s *Surface) CanUndo() bool {
	return s.Allocated() && s.index > 0
}

// CanRedo reports whether Redo would change the bitmap.
func (s *Surface) CanRedo() bool {
	return s.Allocated() && s.index < len(s.history)-1
}

// Bitmap returns a copy of the raw, possibly transparent bitmap.
func (s *Surface) Bitmap() (*image.RGBA, error) {
	if !s.Allocated() {
		return nil, ErrUnallocated
	}
	return cloneRGBA(s.bitmap), nil
}

// Snapshot returns the bitmap flattened over opaque white.
func (s *Surface) Snapshot() (*image.RGBA, error) {
	if !s.Allocated() {
		return nil, ErrUnallocated
	}
	return flatten(s.bitmap), nil
}

// SnapshotPNG returns Snapshot encoded as PNG.
func (s *Surface) SnapshotPNG() ([]byte, error) {
	img, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetColor(color.White)
	dc.Clear()
	dc.DrawImage(src, -b.Min.X, -b.Min.Y)
	return dc.Image().(*image.RGBA)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
