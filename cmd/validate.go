package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/imgprint/internal/blockhash"
	"github.com/AnyUserName/imgprint/internal/hasher"
	"github.com/AnyUserName/imgprint/internal/manifest"
	"github.com/AnyUserName/imgprint/internal/phash"
	"github.com/AnyUserName/imgprint/internal/pipeline"
	"github.com/spf13/cobra"
)

var validateFiles bool

var validateCmd = &cobra.Command{
	Use:   "validate <index_path>",
	Short: "Validate a fingerprint index and check referenced files exist",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateFiles, "files", true, "check entries against files under the scanned root")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, err := manifest.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	root := ""
	if validateFiles && m.BuildInfo != nil {
		root = m.BuildInfo.RootDir
	}
	errs := validateManifest(m, root)

	w := cmd.OutOrStdout()
	if len(errs) == 0 {
		fmt.Fprintln(w, "  ✓ Index is valid")
		fmt.Fprintf(w, "  ✓ %d images, %d groups\n", m.Stats.TotalImages, m.Stats.DuplicateGroups)
		return nil
	}

	fmt.Fprintf(w, "  ✗ Index has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

// validateManifest checks structure and stats consistency. With a
// non-empty rootDir it also checks every entry against the file on disk.
func validateManifest(m *manifest.Manifest, rootDir string) []string {
	var errs []string

	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported index version: %d", m.Version))
	}
	if err := phash.CheckHashSize(m.HashSize); err != nil {
		errs = append(errs, err.Error())
	}
	if m.BlockBits != 0 {
		if err := blockhash.CheckBits(m.BlockBits); err != nil {
			errs = append(errs, err.Error())
		}
	}

	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		e := m.Entries[key]
		if e.Path == "" {
			errs = append(errs, fmt.Sprintf("entry %q: missing path", key))
		}
		if e.Width <= 0 || e.Height <= 0 {
			errs = append(errs, fmt.Sprintf("entry %q: invalid dimensions %dx%d", key, e.Width, e.Height))
		}
		if len(e.ContentHash) != pipeline.ContentHashLen {
			errs = append(errs, fmt.Sprintf("entry %q: content hash length %d", key, len(e.ContentHash)))
		}
		if msg := checkHex(e.PHash, phash.HexLen(m.HashSize)); msg != "" {
			errs = append(errs, fmt.Sprintf("entry %q: phash %s", key, msg))
		}
		if m.BlockBits != 0 {
			if msg := checkHex(e.BlockHash, m.BlockBits*m.BlockBits/4); msg != "" {
				errs = append(errs, fmt.Sprintf("entry %q: blockhash %s", key, msg))
			}
		}
		if e.DHash != "" {
			if msg := checkHex(e.DHash, 16); msg != "" {
				errs = append(errs, fmt.Sprintf("entry %q: dhash %s", key, msg))
			}
		}

		if rootDir == "" || e.Path == "" {
			continue
		}
		info, err := os.Stat(filepath.Join(rootDir, filepath.FromSlash(e.Path)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("entry %q: file not found: %s", key, e.Path))
		} else if e.Size > 0 && info.Size() != e.Size {
			errs = append(errs, fmt.Sprintf("entry %q: size mismatch: index=%d, disk=%d", key, e.Size, info.Size()))
		}
	}

	grouped := map[string]int{}
	for i, g := range m.Groups {
		if len(g.Keys) < 2 {
			errs = append(errs, fmt.Sprintf("group[%d]: fewer than 2 members", i))
		}
		if !sort.StringsAreSorted(g.Keys) {
			errs = append(errs, fmt.Sprintf("group[%d]: keys not sorted", i))
		}
		for _, k := range g.Keys {
			if _, ok := m.Entries[k]; !ok {
				errs = append(errs, fmt.Sprintf("group[%d]: unknown entry %q", i, k))
			}
			if prev, ok := grouped[k]; ok {
				errs = append(errs, fmt.Sprintf("group[%d]: entry %q already in group[%d]", i, k, prev))
			}
			grouped[k] = i
		}
	}

	// Verify stats consistency.
	want := *m
	want.ComputeStats()
	if m.Stats.TotalImages != want.Stats.TotalImages {
		errs = append(errs, fmt.Sprintf("stats.total_images mismatch: %d != %d", m.Stats.TotalImages, want.Stats.TotalImages))
	}
	if m.Stats.TotalBytes != want.Stats.TotalBytes {
		errs = append(errs, fmt.Sprintf("stats.total_bytes mismatch: %d != %d", m.Stats.TotalBytes, want.Stats.TotalBytes))
	}
	if m.Stats.DuplicateGroups != want.Stats.DuplicateGroups {
		errs = append(errs, fmt.Sprintf("stats.duplicate_groups mismatch: %d != %d", m.Stats.DuplicateGroups, want.Stats.DuplicateGroups))
	}

	return errs
}

// checkHex returns a problem description, or "" when s is want hex digits.
func checkHex(s string, want int) string {
	if len(s) != want {
		return fmt.Sprintf("length %d, want %d", len(s), want)
	}
	if _, err := hasher.Distance(s, s); err != nil {
		return "is not hex"
	}
	return ""
}
