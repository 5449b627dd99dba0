package cmd

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/AnyUserName/imgprint/internal/encoder"
	"github.com/AnyUserName/imgprint/internal/raster"
	"github.com/AnyUserName/imgprint/internal/resample"
	"github.com/spf13/cobra"
)

var (
	resizeWidth   int
	resizeHeight  int
	resizeQuality int
	resizeFormat  string
)

var resizeCmd = &cobra.Command{
	Use:   "resize <input> <output>",
	Short: "Resize an image with the Lanczos-3 filter",
	Long: `Resamples an image to the requested size with a separable Lanczos-3
filter. Pass only --width or only --height to keep the aspect ratio.
The output format follows the output extension (jpg, png, gif, bmp, tiff)
unless --format is set; an output path without an extension then gets
the format's canonical one.`,
	Args: cobra.ExactArgs(2),
	RunE: runResize,
}

func init() {
	resizeCmd.Flags().IntVarP(&resizeWidth, "width", "W", 0, "target width (0 = keep aspect)")
	resizeCmd.Flags().IntVarP(&resizeHeight, "height", "H", 0, "target height (0 = keep aspect)")
	resizeCmd.Flags().IntVarP(&resizeQuality, "quality", "q", encoder.DefaultJPEGQuality, "JPEG quality 1-100")
	resizeCmd.Flags().StringVarP(&resizeFormat, "format", "f", "", "output format (default: from output extension)")
	rootCmd.AddCommand(resizeCmd)
}

func runResize(cmd *cobra.Command, args []string) error {
	in := args[0]

	enc, out, err := pickEncoder(encoder.NewRegistry(), args[1], resizeFormat)
	if err != nil {
		return err
	}

	li, err := loadImage(in)
	if err != nil {
		return err
	}

	w, h, err := targetSize(li.width, li.height, resizeWidth, resizeHeight)
	if err != nil {
		return err
	}
	logger.Debug("resize", "from", fmt.Sprintf("%dx%d", li.width, li.height), "to", fmt.Sprintf("%dx%d", w, h))

	pix, err := resample.Resize(li.pix, li.width, li.height, w, h)
	if err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	img, err := raster.ToImage(pix, w, h)
	if err != nil {
		return err
	}

	data, err := enc.Encode(img, resizeQuality)
	if err != nil {
		return fmt.Errorf("encode %s: %w", enc.Format(), err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  %s  %dx%d → %dx%d  %s (%s)\n",
		out, li.width, li.height, w, h, enc.Format(), formatBytes(int64(len(data))))
	return nil
}

// pickEncoder selects the encoder for out, either from an explicit
// format or from the path's extension, and returns the final path.
// Failures list the formats the registry can write.
func pickEncoder(reg *encoder.Registry, out, format string) (encoder.Encoder, string, error) {
	if format == "" {
		enc, err := reg.ForPath(out)
		if err != nil {
			return nil, "", fmt.Errorf("%w (%s)", err, reg)
		}
		return enc, out, nil
	}

	enc := reg.Get(format)
	if enc == nil {
		return nil, "", fmt.Errorf("%w: %s (%s)", encoder.ErrUnsupportedFormat, format, reg)
	}
	if filepath.Ext(out) == "" {
		out += "." + enc.Extension()
	}
	return enc, out, nil
}

// targetSize resolves the output size; a zero side follows the aspect
// ratio of the source and never drops below 1.
func targetSize(srcW, srcH, w, h int) (int, int, error) {
	switch {
	case w < 0 || h < 0:
		return 0, 0, fmt.Errorf("%w: %dx%d", raster.ErrInvalidDimensions, w, h)
	case w == 0 && h == 0:
		return 0, 0, errors.New("resize: set --width, --height or both")
	case w == 0:
		w = max(1, int(math.Round(float64(srcW)*float64(h)/float64(srcH))))
	case h == 0:
		h = max(1, int(math.Round(float64(srcH)*float64(w)/float64(srcW))))
	}
	return w, h, nil
}

// formatBytes renders a byte count for reports.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
