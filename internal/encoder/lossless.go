package encoder

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// losslessEncoder covers the formats imaging writes without options.
type losslessEncoder struct {
	format imaging.Format
	name   string
	ext    string
}

func (e *losslessEncoder) Format() string    { return e.name }
func (e *losslessEncoder) Extension() string { return e.ext }

func (e *losslessEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, e.format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
