//go:build ignore

// gen_fixtures creates a small directory of originals and near-duplicates
// for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(filepath.Join(dir, "cards"), 0o755)
	os.MkdirAll(filepath.Join(dir, "copies"), 0o755)

	// Banner and its near-duplicates: JPEG re-encode, 2x upscale, brighter.
	banner := waves(400, 225)
	save(filepath.Join(dir, "banner.png"), banner)
	save(filepath.Join(dir, "banner-q60.jpg"), banner, imaging.JPEGQuality(60))
	save(filepath.Join(dir, "banner-2x.png"), imaging.Resize(banner, 800, 450, imaging.Lanczos))
	save(filepath.Join(dir, "banner-bright.png"), imaging.AdjustBrightness(banner, 8))

	// Exact copy.
	data, err := os.ReadFile(filepath.Join(dir, "banner.png"))
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "copies", "banner.png"), data, 0o644); err != nil {
		panic(err)
	}

	// Unrelated cards (PNG, 200x150 each).
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("card-%d.png", i)
		save(filepath.Join(dir, "cards", name), checker(200, 150, 10+i*7))
	}

	// Alpha image: transparent pixels count as white in blockhash.
	save(filepath.Join(dir, "logo.png"), alphaGradient(100, 100))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 9 fixtures in %s\n", dir)
}

func waves(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		fy := float64(y) / float64(h)
		for x := 0; x < w; x++ {
			fx := float64(x) / float64(w)
			v := 128 + 60*math.Sin(2*math.Pi*1.3*fx)*math.Cos(2*math.Pi*0.8*fy) +
				30*math.Sin(2*math.Pi*2.7*(fx+fy))
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(v),
				G: uint8(v * 0.8),
				B: uint8(255 - v),
				A: 255,
			})
		}
	}
	return img
}

func checker(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 30, G: 30, B: 30, A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{R: 230, G: 220, B: 200, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

func save(path string, img image.Image, opts ...imaging.EncodeOption) {
	if err := imaging.Save(img, path, opts...); err != nil {
		panic(err)
	}
}
