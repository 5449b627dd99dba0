package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/AnyUserName/imgprint/internal/manifest"
	"github.com/AnyUserName/imgprint/internal/pipeline"
	"github.com/AnyUserName/imgprint/internal/profile"
	"github.com/spf13/cobra"
)

// defaultIndexName is written inside the scanned directory unless --out is set.
const defaultIndexName = "imgprint.index.json"

var (
	scanOut       string
	scanProfile   string
	scanConfig    string
	scanWorkers   int
	scanThreshold int
	scanHashSize  int
)

var scanCmd = &cobra.Command{
	Use:   "scan <input_dir>",
	Short: "Fingerprint a directory and group near-duplicate images",
	Long: `Walks input_dir, computes a content hash, pHash, blockhash and dHash
for every image and writes a fingerprint index. Images with identical
bytes or a pHash distance within the threshold are grouped.

An --out path ending in .zst writes a zstd-compressed index.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "", "index path (default <input_dir>/"+defaultIndexName+")")
	scanCmd.Flags().StringVarP(&scanProfile, "profile", "p", profile.DefaultName, "scan profile ("+strings.Join(profile.Names(), ", ")+")")
	scanCmd.Flags().StringVarP(&scanConfig, "config", "c", "", "YAML config file (overrides --profile)")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "parallel workers (0 = profile, then NumCPU)")
	scanCmd.Flags().IntVarP(&scanThreshold, "threshold", "t", 0, "max pHash distance inside a group")
	scanCmd.Flags().IntVarP(&scanHashSize, "hash-size", "s", 0, "pHash grid size (2-64)")
	rootCmd.AddCommand(scanCmd)
}

// resolveProfile picks the profile from --config or --profile and
// applies explicitly set flags on top.
func resolveProfile(cmd *cobra.Command) (profile.Profile, error) {
	var prof profile.Profile
	if scanConfig != "" {
		p, err := profile.LoadFile(scanConfig)
		if err != nil {
			return prof, err
		}
		prof = p
	} else {
		prof = profile.Get(scanProfile)
	}

	flags := cmd.Flags()
	if flags.Changed("hash-size") {
		prof.HashSize = scanHashSize
	}
	if flags.Changed("threshold") {
		prof.Threshold = scanThreshold
	}
	if flags.Changed("workers") {
		prof.Workers = scanWorkers
	}
	if err := prof.Validate(); err != nil {
		return prof, fmt.Errorf("profile %s: %w", prof.Name, err)
	}
	return prof, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	start := time.Now()

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	out := scanOut
	if out == "" {
		out = filepath.Join(absInput, defaultIndexName)
	}

	prof, err := resolveProfile(cmd)
	if err != nil {
		return err
	}
	logger.Debug("scan", "input", absInput, "out", out, "profile", prof.Name,
		"hash_size", prof.HashSize, "threshold", prof.Threshold)

	p := pipeline.New(pipeline.Config{
		InputDir: absInput,
		Profile:  prof,
		Workers:  prof.Workers,
		Logger:   logger,
	})
	m, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if err := manifest.WriteJSON(m, out); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	printScanReport(cmd, m, out, time.Since(start))
	return nil
}

func printScanReport(cmd *cobra.Command, m *manifest.Manifest, out string, elapsed time.Duration) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║              imgprint scan complete              ║")
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════╝")
	fmt.Fprintln(w)

	s := m.Stats
	fmt.Fprintf(w, "  Images:      %d (%s)\n", s.TotalImages, formatBytes(s.TotalBytes))
	if s.Failed > 0 {
		fmt.Fprintf(w, "  Failed:      %d\n", s.Failed)
	}
	fmt.Fprintf(w, "  Groups:      %d (%d images)\n", s.DuplicateGroups, s.DuplicateImages)
	fmt.Fprintf(w, "  Profile:     %s (hash %d, threshold %d)\n", m.Profile, m.HashSize, m.Threshold)
	if m.BuildInfo != nil {
		fmt.Fprintf(w, "  Workers:     %d\n", m.BuildInfo.Workers)
	}
	fmt.Fprintf(w, "  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintln(w)

	printGroups(cmd, m, 10)

	fmt.Fprintf(w, "  Index:       %s\n", out)
	fmt.Fprintln(w)
}

// printGroups lists up to limit duplicate groups.
func printGroups(cmd *cobra.Command, m *manifest.Manifest, limit int) {
	if len(m.Groups) == 0 {
		return
	}
	w := cmd.OutOrStdout()
	n := min(limit, len(m.Groups))
	fmt.Fprintf(w, "  Top %d duplicate groups:\n", n)
	for _, g := range m.Groups[:n] {
		kind := fmt.Sprintf("near, max distance %d", g.MaxDistance)
		if g.Exact {
			kind = "exact"
		}
		fmt.Fprintf(w, "    [%s]\n", kind)
		for _, k := range g.Keys {
			fmt.Fprintf(w, "      %-48s %s\n", truncKey(m.Entries[k].Path, 48), m.Entries[k].PHash)
		}
	}
	fmt.Fprintln(w)
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
