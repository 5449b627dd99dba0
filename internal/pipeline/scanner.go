package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the input directory, forward slashes.
	RelPath string
	// Key is the index key (relpath without extension).
	Key string
	// Format is the source format derived from the extension (png, jpeg, ...).
	Format string
	// Size is the file size in bytes.
	Size int64
}

// ScanImages walks the input directory and returns every file whose
// lowercase extension is in exts, sorted by relative path. Hidden
// directories are skipped.
func ScanImages(inputDir string, exts map[string]bool) ([]Source, error) {
	var sources []Source
	seen := map[string]bool{}

	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != inputDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !exts[ext] {
			return nil
		}

		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		// a.png and a.jpg share a key; the second one keeps its extension.
		key := strings.TrimSuffix(relPath, filepath.Ext(relPath))
		if seen[key] {
			key = relPath
		}
		seen[key] = true

		sources = append(sources, Source{
			AbsPath: path,
			RelPath: relPath,
			Key:     key,
			Format:  formatName(ext),
			Size:    info.Size(),
		})
		return nil
	})

	sort.Slice(sources, func(i, j int) bool { return sources[i].RelPath < sources[j].RelPath })
	return sources, err
}

// formatName normalizes an extension into a format name.
func formatName(ext string) string {
	format := strings.TrimPrefix(ext, ".")
	switch format {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return format
}
