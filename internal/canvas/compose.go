package canvas

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/gift"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// View selects how a drawing and a generated result are combined.
type View string

const (
	ViewOriginal View = "original"
	ViewAI       View = "ai"
	ViewSplit    View = "split"
)

// Views lists the view modes in toolbar order.
var Views = []View{ViewOriginal, ViewSplit, ViewAI}

// ParseView parses a view name. The empty string selects ViewOriginal.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewOriginal, nil
	case ViewOriginal, ViewAI, ViewSplit:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// splitAlpha is the opacity of the result in ViewSplit.
const splitAlpha = 128

// Compose renders the flattened drawing combined with result. The result is
// scaled to cover the drawing and centred. A nil result always yields the
// drawing.
func Compose(drawing, result image.Image, view View) *image.RGBA {
	b := drawing.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), drawing, b.Min, xdraw.Src)

	if result == nil || view == ViewOriginal {
		return dst
	}

	fitted := Fit(result, b.Dx(), b.Dy())
	switch view {
	case ViewAI:
		xdraw.Draw(dst, dst.Bounds(), fitted, image.Point{}, xdraw.Over)
	case ViewSplit:
		xdraw.DrawMask(dst, dst.Bounds(), fitted, image.Point{},
			image.NewUniform(color.Alpha{A: splitAlpha}), image.Point{}, xdraw.Over)
	}
	return dst
}

// Fit scales img to fill width×height, cropping the overflow around the
// centre.
func Fit(img image.Image, width, height int) *image.RGBA {
	g := gift.New(gift.ResizeToFill(width, height, gift.LinearResampling, gift.CenterAnchor))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img *image.RGBA) error {
	if err := gg.NewContextForRGBA(img).EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
