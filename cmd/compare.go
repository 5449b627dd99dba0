package cmd

import (
	"fmt"

	"github.com/AnyUserName/imgprint/internal/hasher"
	"github.com/AnyUserName/imgprint/internal/phash"
	"github.com/AnyUserName/imgprint/internal/profile"
	"github.com/corona10/goimagehash"
	"github.com/spf13/cobra"
)

var (
	compareSize      int
	compareThreshold int
	compareFail      bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <image_a> <image_b>",
	Short: "Compare two images by perceptual hash distance",
	Long: `Hashes both images and prints the pHash Hamming distance, the
similarity (1 - distance/bits) and a 64-bit difference-hash distance as
a cross-check. Images are reported similar when the pHash distance is
at most --threshold.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	def := profile.Get(profile.DefaultName)
	compareCmd.Flags().IntVarP(&compareSize, "hash-size", "s", def.HashSize, "hash grid size (2-64)")
	compareCmd.Flags().IntVarP(&compareThreshold, "threshold", "t", def.Threshold, "max distance to report as similar")
	compareCmd.Flags().BoolVar(&compareFail, "fail", false, "exit with an error when the images differ")
	rootCmd.AddCommand(compareCmd)
}

// comparison is the outcome of comparing two images.
type comparison struct {
	PHashA, PHashB string
	Distance       int
	Similarity     float64
	DHashDistance  int
}

func runCompare(cmd *cobra.Command, args []string) error {
	if err := phash.CheckHashSize(compareSize); err != nil {
		return err
	}
	a, err := loadImage(args[0])
	if err != nil {
		return err
	}
	b, err := loadImage(args[1])
	if err != nil {
		return err
	}

	c, err := compareImages(a, b, compareSize)
	if err != nil {
		return err
	}

	similar := c.Distance <= compareThreshold
	verdict := "different"
	if similar {
		verdict = "similar"
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  A:          %s  %s\n", c.PHashA, a.path)
	fmt.Fprintf(w, "  B:          %s  %s\n", c.PHashB, b.path)
	fmt.Fprintf(w, "  Distance:   %d / %d bits\n", c.Distance, phash.BitLen(compareSize))
	fmt.Fprintf(w, "  Similarity: %.1f%%\n", c.Similarity*100)
	fmt.Fprintf(w, "  dHash:      %d / 64 bits\n", c.DHashDistance)
	fmt.Fprintf(w, "  Verdict:    %s (threshold %d)\n", verdict, compareThreshold)

	if compareFail && !similar {
		return fmt.Errorf("images differ: distance %d > %d", c.Distance, compareThreshold)
	}
	return nil
}

func compareImages(a, b *loadedImage, hashSize int) (comparison, error) {
	var c comparison
	var err error
	if c.PHashA, err = phash.Hash(a.pix, a.width, a.height, hashSize); err != nil {
		return c, fmt.Errorf("phash %s: %w", a.path, err)
	}
	if c.PHashB, err = phash.Hash(b.pix, b.width, b.height, hashSize); err != nil {
		return c, fmt.Errorf("phash %s: %w", b.path, err)
	}
	if c.Distance, err = hasher.Distance(c.PHashA, c.PHashB); err != nil {
		return c, err
	}
	c.Similarity = 1 - float64(c.Distance)/float64(phash.BitLen(hashSize))

	da, err := goimagehash.DifferenceHash(a.img)
	if err != nil {
		return c, fmt.Errorf("dhash %s: %w", a.path, err)
	}
	db, err := goimagehash.DifferenceHash(b.img)
	if err != nil {
		return c, fmt.Errorf("dhash %s: %w", b.path, err)
	}
	if c.DHashDistance, err = da.Distance(db); err != nil {
		return c, err
	}
	return c, nil
}
