package pipeline

import (
	"bytes"
	"fmt"
	"os"

	"github.com/AnyUserName/imgprint/internal/blockhash"
	"github.com/AnyUserName/imgprint/internal/hasher"
	"github.com/AnyUserName/imgprint/internal/manifest"
	"github.com/AnyUserName/imgprint/internal/phash"
	"github.com/AnyUserName/imgprint/internal/profile"
	"github.com/AnyUserName/imgprint/internal/raster"
	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

// ContentHashLen is the hex length of the content address stored per entry.
const ContentHashLen = 16

// processImage fingerprints a single source image: read, content hash,
// decode, then phash, blockhash and dhash over the decoded pixels.
func processImage(src Source, prof profile.Profile) (manifest.Entry, error) {
	entry := manifest.Entry{
		Path:   src.RelPath,
		Format: src.Format,
		Size:   src.Size,
	}

	data, err := os.ReadFile(src.AbsPath)
	if err != nil {
		return entry, fmt.Errorf("read %s: %w", src.RelPath, err)
	}
	entry.Size = int64(len(data))
	entry.ContentHash = hasher.ContentHash(data, ContentHashLen)

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return entry, fmt.Errorf("decode %s: %w", src.RelPath, err)
	}

	pix, w, h := raster.FromImage(img)
	entry.Width, entry.Height = w, h

	if entry.PHash, err = phash.Hash(pix, w, h, prof.HashSize); err != nil {
		return entry, fmt.Errorf("phash %s: %w", src.RelPath, err)
	}
	entry.BlockHash, err = blockhash.Hash(pix, w, h, prof.BlockBits, blockhash.Method(prof.BlockMethod))
	if err != nil {
		return entry, fmt.Errorf("blockhash %s: %w", src.RelPath, err)
	}

	dh, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return entry, fmt.Errorf("dhash %s: %w", src.RelPath, err)
	}
	entry.DHash = fmt.Sprintf("%016x", dh.GetHash())

	return entry, nil
}
