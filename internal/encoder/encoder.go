package encoder

import (
	"image"
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "jpeg", "png", "tiff").
	Format() string

	// Encode converts the image to bytes. Quality (1-100) is only
	// honoured by lossy formats.
	Encode(img image.Image, quality int) ([]byte, error)

	// Extension returns the canonical file extension without dot.
	Extension() string
}
