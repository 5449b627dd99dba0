package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/imgprint/internal/manifest"
	"github.com/AnyUserName/imgprint/internal/profile"
	"github.com/AnyUserName/imgprint/internal/raster"
	"github.com/AnyUserName/imgprint/internal/resample"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── fixtures ────────────────────────────────────────────────

func waves(w, h int) []byte {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		fy := float64(y) / float64(h)
		for x := 0; x < w; x++ {
			fx := float64(x) / float64(w)
			v := 128 +
				40*math.Sin(2*math.Pi*1.3*fx)*math.Cos(2*math.Pi*0.8*fy) +
				25*math.Sin(2*math.Pi*2.7*(fx+fy)) +
				15*math.Cos(2*math.Pi*(3.1*fy-1.7*fx))
			b := byte(math.Max(0, math.Min(255, math.Round(v))))
			i := (y*w + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = b, b, b, 255
		}
	}
	return pix
}

func savePix(t *testing.T, path string, pix []byte, w, h int) {
	t.Helper()
	img, err := raster.ToImage(pix, w, h)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, imaging.Save(img, path))
}

// fixtureDir lays out:
//
//	base.png            64x64 waves
//	copies/base.png     byte-identical copy
//	big.png             base upscaled 2x
//	noise.png           unrelated content
//	broken.png          not an image
//	notes.txt           ignored
//	.cache/hidden.png   skipped
func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	base := waves(64, 64)
	savePix(t, filepath.Join(dir, "base.png"), base, 64, 64)

	data, err := os.ReadFile(filepath.Join(dir, "base.png"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "copies"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "copies", "base.png"), data, 0o644))

	big, err := resample.Resize(base, 64, 64, 128, 128)
	require.NoError(t, err)
	savePix(t, filepath.Join(dir, "big.png"), big, 128, 128)

	rng := rand.New(rand.NewPCG(7, 11))
	noise := make([]byte, 64*64*4)
	for i := range noise {
		noise[i] = byte(rng.IntN(256))
	}
	savePix(t, filepath.Join(dir, "noise.png"), noise, 64, 64)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	savePix(t, filepath.Join(dir, ".cache", "hidden.png"), base, 64, 64)
	return dir
}

// ─── scanner ─────────────────────────────────────────────────

func TestScanImages(t *testing.T) {
	dir := fixtureDir(t)
	sources, err := ScanImages(dir, profile.Get("default").ExtensionSet())
	require.NoError(t, err)

	var rel []string
	for _, s := range sources {
		rel = append(rel, s.RelPath)
		assert.Equal(t, "png", s.Format)
		assert.Positive(t, s.Size)
	}
	assert.Equal(t, []string{"base.png", "big.png", "broken.png", "copies/base.png", "noise.png"}, rel)
	assert.Equal(t, "copies/base", sources[3].Key)
}

func TestScanImages_KeyCollision(t *testing.T) {
	dir := t.TempDir()
	pix := waves(8, 8)
	savePix(t, filepath.Join(dir, "a.png"), pix, 8, 8)
	savePix(t, filepath.Join(dir, "a.jpg"), pix, 8, 8)

	sources, err := ScanImages(dir, map[string]bool{".png": true, ".jpg": true})
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a", sources[0].Key)
	assert.Equal(t, "jpeg", sources[0].Format)
	assert.Equal(t, "a.png", sources[1].Key)
}

// ─── processor ───────────────────────────────────────────────

func TestProcessImage(t *testing.T) {
	dir := fixtureDir(t)
	prof := profile.Get("default")
	e, err := processImage(Source{
		AbsPath: filepath.Join(dir, "big.png"),
		RelPath: "big.png",
		Format:  "png",
	}, prof)
	require.NoError(t, err)

	assert.Equal(t, 128, e.Width)
	assert.Equal(t, 128, e.Height)
	assert.Len(t, e.ContentHash, ContentHashLen)
	assert.Len(t, e.PHash, 64)
	assert.Len(t, e.BlockHash, prof.BlockBits*prof.BlockBits/4)
	assert.Len(t, e.DHash, 16)
	assert.Positive(t, e.Size)
}

func TestProcessImage_Errors(t *testing.T) {
	dir := fixtureDir(t)
	_, err := processImage(Source{AbsPath: filepath.Join(dir, "broken.png"), RelPath: "broken.png"}, profile.Get(""))
	assert.ErrorContains(t, err, "decode broken.png")

	_, err = processImage(Source{AbsPath: filepath.Join(dir, "missing.png"), RelPath: "missing.png"}, profile.Get(""))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ─── pipeline ────────────────────────────────────────────────

func TestRun(t *testing.T) {
	dir := fixtureDir(t)
	p := New(Config{InputDir: dir, Profile: profile.Get("default"), Workers: 2})

	m, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, m.Entries, 4)
	assert.NotContains(t, m.Entries, "broken")
	assert.Equal(t, 1, m.Stats.Failed)
	assert.Equal(t, 4, m.Stats.TotalImages)
	require.NotNil(t, m.BuildInfo)
	assert.Equal(t, 2, m.BuildInfo.Workers)

	require.Len(t, m.Groups, 1)
	g := m.Groups[0]
	assert.Equal(t, []string{"base", "big", "copies/base"}, g.Keys)
	assert.False(t, g.Exact)
	assert.LessOrEqual(t, g.MaxDistance, m.Threshold)

	assert.Equal(t, m.Entries["base"].ContentHash, m.Entries["copies/base"].ContentHash)
	assert.Equal(t, m.Entries["base"].PHash, m.Entries["copies/base"].PHash)
}

func TestRun_WritesReadableIndex(t *testing.T) {
	dir := fixtureDir(t)
	m, err := New(Config{InputDir: dir, Profile: profile.Get("strict")}).Run(context.Background())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "index.json.zst")
	require.NoError(t, manifest.WriteJSON(m, out))
	back, err := manifest.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, m.Entries, back.Entries)
	assert.Equal(t, "strict", back.Profile)
}

func TestRun_NoImages(t *testing.T) {
	_, err := New(Config{InputDir: t.TempDir(), Profile: profile.Get("")}).Run(context.Background())
	assert.ErrorContains(t, err, "no images found")
}

func TestRun_AllFail(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.png"), []byte("nope"), 0o644))
	_, err := New(Config{InputDir: dir, Profile: profile.Get("")}).Run(context.Background())
	assert.ErrorContains(t, err, "all 1 images failed")
}

func TestRun_Cancelled(t *testing.T) {
	dir := fixtureDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{InputDir: dir, Profile: profile.Get("")}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// ─── grouping ────────────────────────────────────────────────

func TestGroupDuplicates(t *testing.T) {
	entries := map[string]manifest.Entry{
		"a": {ContentHash: "c1", PHash: "0000"},
		"b": {ContentHash: "c2", PHash: "0001"}, // 1 from a
		"c": {ContentHash: "c3", PHash: "0003"}, // 1 from b, 2 from a
		"d": {ContentHash: "c4", PHash: "ffff"},
		"e": {ContentHash: "c4", PHash: "fff0"}, // same bytes as d
		"f": {ContentHash: "c5", PHash: "0f0f"},
	}
	groups := GroupDuplicates(entries, 1)
	require.Len(t, groups, 2)

	assert.Equal(t, []string{"a", "b", "c"}, groups[0].Keys)
	assert.False(t, groups[0].Exact)
	assert.Equal(t, 2, groups[0].MaxDistance)

	assert.Equal(t, []string{"d", "e"}, groups[1].Keys)
	assert.True(t, groups[1].Exact)
	assert.Equal(t, 4, groups[1].MaxDistance)
}

func TestGroupDuplicates_MismatchedSizesNeverMatch(t *testing.T) {
	entries := map[string]manifest.Entry{
		"a": {ContentHash: "1", PHash: "00"},
		"b": {ContentHash: "2", PHash: "0000"},
	}
	assert.Empty(t, GroupDuplicates(entries, 64))
}

func TestGroupDuplicates_BadHashJoinsByContentOnly(t *testing.T) {
	entries := map[string]manifest.Entry{
		"a": {ContentHash: "c1", PHash: "zzzz"},
		"b": {ContentHash: "c1", PHash: "0000"},
		"c": {ContentHash: "c2", PHash: "0000"},
		"d": {ContentHash: "c3", PHash: "zzzz"},
	}
	groups := GroupDuplicates(entries, 0)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a", "b", "c"}, groups[0].Keys)
	assert.False(t, groups[0].Exact)
	assert.Equal(t, 0, groups[0].MaxDistance)
}

func BenchmarkGroupDuplicates(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	entries := make(map[string]manifest.Entry, 2000)
	for i := 0; i < 2000; i++ {
		var sb strings.Builder
		for j := 0; j < 64; j++ {
			sb.WriteByte("0123456789abcdef"[rng.IntN(16)])
		}
		entries[fmt.Sprintf("img-%04d", i)] = manifest.Entry{
			ContentHash: fmt.Sprintf("%016x", i),
			PHash:       sb.String(),
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GroupDuplicates(entries, 25)
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)
	uf.union(0, 1)
	uf.union(3, 4)
	uf.union(1, 4)
	assert.Equal(t, uf.find(0), uf.find(3))
	assert.NotEqual(t, uf.find(0), uf.find(2))
}
