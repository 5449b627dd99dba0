package encoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned when no encoder matches a format or path.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// order is the listing order of Available.
var order = []string{"jpeg", "png", "gif", "bmp", "tiff"}

// Registry holds all available encoders keyed by format name.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry with every built-in encoder.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}

	all := []Encoder{
		&JPEGEncoder{},
		&PNGEncoder{},
		&losslessEncoder{format: imaging.GIF, name: "gif", ext: "gif"},
		&losslessEncoder{format: imaging.BMP, name: "bmp", ext: "bmp"},
		&losslessEncoder{format: imaging.TIFF, name: "tiff", ext: "tiff"},
	}
	for _, enc := range all {
		r.encoders[enc.Format()] = enc
	}
	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
// "jpg" and "tif" are accepted as aliases.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[normalizeFormat(format)]
}

// ForPath picks an encoder from the extension of an output path.
func (r *Registry) ForPath(path string) (Encoder, error) {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	enc := r.Get(f.String())
	if enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return enc, nil
}

// Available returns all registered format names.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range order {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}

func normalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimPrefix(f, "."))
	switch f {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return f
}
