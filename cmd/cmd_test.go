package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/imgprint/internal/encoder"
	"github.com/AnyUserName/imgprint/internal/manifest"
	"github.com/AnyUserName/imgprint/internal/profile"
	"github.com/AnyUserName/imgprint/internal/raster"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag of cmd and its subcommands to its
// default so package-level flag variables do not carry over between runs.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue), f.Name)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(t, c)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t, rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeGradient(t *testing.T, path string, w, h int, flip bool) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / w)
			if flip {
				v = uint8(y * 255 / h)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: 255 - v, B: 80, A: 255})
		}
	}
	require.NoError(t, imaging.Save(img, path))
}

func TestTargetSize(t *testing.T) {
	cases := []struct {
		name         string
		sw, sh, w, h int
		ww, wh       int
		err          bool
	}{
		{"both", 100, 50, 30, 40, 30, 40, false},
		{"width only", 100, 50, 40, 0, 40, 20, false},
		{"height only", 100, 50, 0, 10, 20, 10, false},
		{"never below one", 1000, 1, 10, 0, 10, 1, false},
		{"none", 100, 50, 0, 0, 0, 0, true},
		{"negative", 100, 50, -1, 10, 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h, err := targetSize(tc.sw, tc.sh, tc.w, tc.h)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ww, w)
			assert.Equal(t, tc.wh, h)
		})
	}
}

func TestRenderLine(t *testing.T) {
	li := &loadedImage{path: "a/b.png", size: 1234, width: 640, height: 480}
	got := renderLine("{{path}} {{width}}x{{height}} {{size}} {{hash}} {{other}}", li, "abcd")
	assert.Equal(t, "a/b.png 640x480 1234 abcd {{other}}", got)
}

func TestValidateManifest(t *testing.T) {
	m := manifest.New("default", 2, 1, 4)
	m.Entries["a"] = manifest.Entry{Path: "a.png", Width: 4, Height: 4, ContentHash: "0123456789abcdef", PHash: "7", BlockHash: "ffff"}
	m.Entries["b"] = manifest.Entry{Path: "b.png", Width: 4, Height: 4, ContentHash: "0123456789abcdee", PHash: "6", BlockHash: "fffe"}
	m.Groups = []manifest.Group{{Keys: []string{"a", "b"}, MaxDistance: 1}}
	m.ComputeStats()
	assert.Empty(t, validateManifest(m, ""))

	m.Entries["c"] = manifest.Entry{Path: "", Width: 0, Height: 4, ContentHash: "x", PHash: "zz", BlockHash: "ffff"}
	m.Groups = append(m.Groups, manifest.Group{Keys: []string{"b", "zz"}})
	errs := validateManifest(m, "")
	joined := strings.Join(errs, "\n")
	assert.Contains(t, joined, `entry "c": missing path`)
	assert.Contains(t, joined, `entry "c": invalid dimensions 0x4`)
	assert.Contains(t, joined, `entry "c": phash length 2, want 1`)
	assert.Contains(t, joined, `unknown entry "zz"`)
	assert.Contains(t, joined, `entry "b" already in group[0]`)
	assert.Contains(t, joined, "stats.total_images mismatch")
}

func TestValidateManifest_Files(t *testing.T) {
	dir := t.TempDir()
	writeGradient(t, filepath.Join(dir, "a.png"), 8, 8, false)

	m := manifest.New("default", 2, 1, 0)
	m.Entries["a"] = manifest.Entry{Path: "a.png", Width: 8, Height: 8, Size: 1, ContentHash: "0123456789abcdef", PHash: "7"}
	m.Entries["gone"] = manifest.Entry{Path: "gone.png", Width: 8, Height: 8, ContentHash: "0123456789abcdef", PHash: "7"}
	m.ComputeStats()

	joined := strings.Join(validateManifest(m, dir), "\n")
	assert.Contains(t, joined, `entry "a": size mismatch`)
	assert.Contains(t, joined, `entry "gone": file not found`)
}

func TestCLI_ScanValidateStats(t *testing.T) {
	dir := t.TempDir()
	writeGradient(t, filepath.Join(dir, "a.png"), 64, 48, false)
	writeGradient(t, filepath.Join(dir, "b.png"), 128, 96, false)
	writeGradient(t, filepath.Join(dir, "c.png"), 64, 48, true)
	out := filepath.Join(t.TempDir(), "index.json.zst")

	text, err := runCLI(t, "scan", dir, "--out", out)
	require.NoError(t, err, text)
	assert.Contains(t, text, "imgprint scan complete")

	m, err := manifest.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, m.Entries, 3)

	text, err = runCLI(t, "validate", out)
	require.NoError(t, err, text)
	assert.Contains(t, text, "Index is valid")

	text, err = runCLI(t, "stats", out)
	require.NoError(t, err, text)
	assert.Contains(t, text, "Total images:     3")
}

func TestCLI_HashResizeCompare(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	writeGradient(t, src, 60, 40, false)

	text, err := runCLI(t, "phash", src, "--format", "{{width}}x{{height}} {{hash}}")
	require.NoError(t, err)
	assert.Regexp(t, `^60x40 [0-9a-f]{64}\n$`, text)

	text, err = runCLI(t, "blockhash", src, "--bits", "8", "--format", "{{hash}}")
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{16}\n$`, text)

	dst := filepath.Join(dir, "small.png")
	_, err = runCLI(t, "resize", src, dst, "-W", "30", "-H", "0")
	require.NoError(t, err)
	img, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 20), img.Bounds().Size())

	text, err = runCLI(t, "compare", src, src, "--fail")
	require.NoError(t, err)
	assert.Contains(t, text, "Distance:   0 / 255 bits")
	assert.Contains(t, text, "similar")

	_, err = runCLI(t, "resize", src, filepath.Join(dir, "out.webp"), "-W", "10")
	assert.Error(t, err)
}

func TestLoadImage_Buffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	writeGradient(t, path, 10, 6, false)
	li, err := loadImage(path)
	require.NoError(t, err)
	require.NoError(t, raster.Validate(li.pix, li.width, li.height))
	assert.Equal(t, 10, li.width)
	assert.Equal(t, 6, li.height)
}

func writeNoise(t *testing.T, path string, w, h int, seed uint64) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(rng.IntN(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	require.NoError(t, imaging.Save(img, path))
}

func TestCLI_CompareFailOnDifferentImages(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeGradient(t, a, 64, 64, false)
	writeNoise(t, b, 64, 64, 3)

	text, err := runCLI(t, "compare", a, b, "--fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "images differ")
	assert.Contains(t, text, "different")

	// Without --fail the verdict is only reported.
	text, err = runCLI(t, "compare", a, b)
	require.NoError(t, err)
	assert.Contains(t, text, "Verdict:    different")
}

func TestCLI_FlagsDoNotLeakBetweenRuns(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writeGradient(t, a, 64, 64, false)
	writeNoise(t, b, 64, 64, 5)

	_, err := runCLI(t, "compare", a, b, "--fail", "--threshold", "3")
	require.Error(t, err)
	_, err = runCLI(t, "compare", a, b)
	require.NoError(t, err)
	assert.False(t, compareFail)
	assert.Equal(t, profile.Get(profile.DefaultName).Threshold, compareThreshold)
}

func TestResolveProfile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "imgprint.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("profile: compact\nthreshold: 4\nworkers: 2\n"), 0o644))

	tests := []struct {
		name    string
		flags   map[string]string
		want    profile.Profile
		wantErr error
		errText string
	}{
		{
			name:  "builtin",
			flags: map[string]string{"profile": "strict"},
			want:  profile.Profile{Name: "strict", HashSize: 16, Threshold: 10, Workers: 0},
		},
		{
			name:  "config file",
			flags: map[string]string{"config": cfg},
			want:  profile.Profile{Name: "compact", HashSize: 8, Threshold: 4, Workers: 2},
		},
		{
			name: "flags override config",
			flags: map[string]string{
				"config": cfg, "hash-size": "12", "threshold": "30", "workers": "3",
			},
			want: profile.Profile{Name: "compact", HashSize: 12, Threshold: 30, Workers: 3},
		},
		{
			name:  "config wins over profile",
			flags: map[string]string{"config": cfg, "profile": "strict"},
			want:  profile.Profile{Name: "compact", HashSize: 8, Threshold: 4, Workers: 2},
		},
		{
			name:    "degenerate hash size",
			flags:   map[string]string{"hash-size": "1"},
			wantErr: raster.ErrInvalidHashSize,
		},
		{
			name:    "threshold beyond bit length",
			flags:   map[string]string{"config": cfg, "threshold": "64"},
			errText: "threshold 64 out of range 0..63",
		},
		{
			name:    "negative workers",
			flags:   map[string]string{"workers": "-1"},
			errText: "workers must not be negative",
		},
		{
			name:    "missing config",
			flags:   map[string]string{"config": filepath.Join(dir, "nope.yaml")},
			wantErr: os.ErrNotExist,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t, rootCmd)
			t.Cleanup(func() { resetFlags(t, rootCmd) })
			for k, v := range tt.flags {
				require.NoError(t, scanCmd.Flags().Set(k, v))
			}

			got, err := resolveProfile(scanCmd)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				return
			case tt.errText != "":
				assert.ErrorContains(t, err, tt.errText)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.HashSize, got.HashSize)
			assert.Equal(t, tt.want.Threshold, got.Threshold)
			assert.Equal(t, tt.want.Workers, got.Workers)
		})
	}
}

func TestPickEncoder(t *testing.T) {
	reg := encoder.NewRegistry()

	enc, out, err := pickEncoder(reg, "dir/out.png", "")
	require.NoError(t, err)
	assert.Equal(t, "png", enc.Format())
	assert.Equal(t, "dir/out.png", out)

	enc, out, err = pickEncoder(reg, "dir/out", "jpeg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", enc.Format())
	assert.Equal(t, "dir/out.jpg", out)

	enc, out, err = pickEncoder(reg, "dir/out.img", "tif")
	require.NoError(t, err)
	assert.Equal(t, "tiff", enc.Format())
	assert.Equal(t, "dir/out.img", out)

	_, _, err = pickEncoder(reg, "dir/out.webp", "")
	assert.ErrorIs(t, err, encoder.ErrUnsupportedFormat)
	assert.ErrorContains(t, err, "encoders: jpeg, png, gif, bmp, tiff")

	_, _, err = pickEncoder(reg, "dir/out", "avif")
	assert.ErrorIs(t, err, encoder.ErrUnsupportedFormat)
	assert.ErrorContains(t, err, "encoders: jpeg, png, gif, bmp, tiff")
}

func TestCLI_ResizeExplicitFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	writeGradient(t, src, 40, 20, false)

	_, err := runCLI(t, "resize", src, filepath.Join(dir, "thumb"), "-H", "10", "--format", "jpeg")
	require.NoError(t, err)
	img, err := imaging.Open(filepath.Join(dir, "thumb.jpg"))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 10), img.Bounds().Size())
}
