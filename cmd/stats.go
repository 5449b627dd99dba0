package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/imgprint/internal/manifest"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <index_or_dir>",
	Short: "Display statistics for a fingerprint index",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// indexPath maps a scanned directory to the index inside it.
func indexPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return filepath.Join(path, defaultIndexName), nil
	}
	return path, nil
}

func runStats(cmd *cobra.Command, args []string) error {
	path, err := indexPath(args[0])
	if err != nil {
		return err
	}
	m, err := manifest.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	printStats(cmd, m)
	return nil
}

func printStats(cmd *cobra.Command, m *manifest.Manifest) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Index version:    %d\n", m.Version)
	fmt.Fprintf(w, "  Generated:        %s\n", m.GeneratedAt)
	fmt.Fprintf(w, "  Profile:          %s\n", m.Profile)
	fmt.Fprintf(w, "  Hash size:        %d (threshold %d)\n", m.HashSize, m.Threshold)
	if m.BuildInfo != nil {
		fmt.Fprintf(w, "  Root:             %s\n", m.BuildInfo.RootDir)
		fmt.Fprintf(w, "  Workers:          %d\n", m.BuildInfo.Workers)
		if m.BuildInfo.Duration != "" {
			fmt.Fprintf(w, "  Scan time:        %s\n", m.BuildInfo.Duration)
		}
	}
	fmt.Fprintln(w)

	s := m.Stats
	fmt.Fprintf(w, "  Total images:     %d\n", s.TotalImages)
	fmt.Fprintf(w, "  Total size:       %s\n", formatBytes(s.TotalBytes))
	fmt.Fprintf(w, "  Duplicate groups: %d\n", s.DuplicateGroups)
	fmt.Fprintf(w, "  In groups:        %d\n", s.DuplicateImages)
	if s.Failed > 0 {
		fmt.Fprintf(w, "  Failed:           %d\n", s.Failed)
	}
	fmt.Fprintln(w)

	// Per-format breakdown.
	type formatStat struct {
		count int
		bytes int64
	}
	byFormat := map[string]formatStat{}
	for _, e := range m.Entries {
		fs := byFormat[e.Format]
		fs.count++
		fs.bytes += e.Size
		byFormat[e.Format] = fs
	}
	formats := make([]string, 0, len(byFormat))
	for f := range byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	fmt.Fprintln(w, "  Format breakdown:")
	for _, f := range formats {
		fmt.Fprintf(w, "    %-6s  %4d files  %s\n", f, byFormat[f].count, formatBytes(byFormat[f].bytes))
	}
	fmt.Fprintln(w)

	// Reclaimable bytes: everything in a group except its largest member.
	var reclaim int64
	exact := 0
	for _, g := range m.Groups {
		if g.Exact {
			exact++
		}
		var total, largest int64
		for _, k := range g.Keys {
			sz := m.Entries[k].Size
			total += sz
			largest = max(largest, sz)
		}
		reclaim += total - largest
	}
	if len(m.Groups) > 0 {
		fmt.Fprintf(w, "  Exact groups:     %d of %d\n", exact, len(m.Groups))
		fmt.Fprintf(w, "  Reclaimable:      %s\n", formatBytes(reclaim))
		fmt.Fprintln(w)
	}

	printGroups(cmd, m, 10)
}
