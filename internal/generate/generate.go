// Package generate performs the image-enhancement round trip: a flattened
// sketch goes out, a generated image comes back.
package generate

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrEmptyResult is returned when the service answers without an image.
	ErrEmptyResult = errors.New("generate: empty result")
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("generate: missing API key")
)

// Result is a generated image.
type Result struct {
	// URL is where the service published the image, if it did.
	URL string
	// Image is the decoded image.
	Image image.Image
}

// Generator turns a PNG sketch into an enhanced image.
type Generator interface {
	Generate(ctx context.Context, png []byte) (*Result, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, png []byte) (*Result, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, png []byte) (*Result, error) {
	return f(ctx, png)
}
