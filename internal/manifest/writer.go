package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// compressedSuffix marks index files stored zstd-compressed.
const compressedSuffix = ".zst"

// New creates an empty manifest with defaults.
func New(profileName string, hashSize, threshold, blockBits int) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		HashSize:    hashSize,
		Threshold:   threshold,
		BlockBits:   blockBits,
		Entries:     make(map[string]Entry),
	}
}

// ComputeStats recalculates aggregate statistics from entries and
// groups. Failed is left untouched.
func (m *Manifest) ComputeStats() {
	s := Stats{Failed: m.Stats.Failed}
	s.TotalImages = len(m.Entries)
	for _, e := range m.Entries {
		s.TotalBytes += e.Size
	}
	s.DuplicateGroups = len(m.Groups)
	for _, g := range m.Groups {
		s.DuplicateImages += len(g.Keys)
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to path. Paths ending in ".zst"
// are zstd-compressed.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if strings.HasSuffix(path, compressedSuffix) {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads a manifest written by WriteJSON.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, compressedSuffix) {
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		if data, err = io.ReadAll(dec); err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
	}
	return Parse(data)
}

// Parse decodes manifest JSON. Unknown fields are ignored.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]Entry)
	}
	return &m, nil
}
