package encoder

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when the caller passes no quality.
const DefaultJPEGQuality = 90

// JPEGEncoder encodes images to JPEG.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() string    { return "jpeg" }
func (e *JPEGEncoder) Extension() string { return "jpg" }

func (e *JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024) // pre-alloc 256KB, typical photo

	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
