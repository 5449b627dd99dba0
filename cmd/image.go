package cmd

import (
	"fmt"
	"image"
	"os"
	"strconv"

	"github.com/AnyUserName/imgprint/internal/raster"
	"github.com/disintegration/imaging"
	"github.com/valyala/fasttemplate"

	_ "golang.org/x/image/webp"
)

// loadedImage is a decoded file plus its tight RGBA buffer.
type loadedImage struct {
	path   string
	size   int64
	img    image.Image
	pix    []byte
	width  int
	height int
}

// loadImage decodes path, honouring EXIF orientation.
func loadImage(path string) (*loadedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	pix, w, h := raster.FromImage(img)
	logger.Debug("decoded", "path", path, "width", w, "height", h)
	return &loadedImage{path: path, size: info.Size(), img: img, pix: pix, width: w, height: h}, nil
}

// renderLine expands a --format template for one hashed image.
// Unknown tags are left as written.
func renderLine(tmpl string, li *loadedImage, hash string) string {
	return fasttemplate.ExecuteStringStd(tmpl, "{{", "}}", map[string]any{
		"path":   li.path,
		"hash":   hash,
		"width":  strconv.Itoa(li.width),
		"height": strconv.Itoa(li.height),
		"size":   strconv.FormatInt(li.size, 10),
	})
}
