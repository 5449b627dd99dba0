package manifest

// Manifest is the fingerprint index written by an imgprint scan.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Profile     string           `json:"profile"`
	HashSize    int              `json:"hash_size"`
	Threshold   int              `json:"threshold"` // max phash distance inside a group
	BlockBits   int              `json:"block_bits"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Entries     map[string]Entry `json:"entries"`
	Groups      []Group          `json:"groups"`
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures scan-time parameters for diagnostics.
type BuildInfo struct {
	Workers  int    `json:"workers"`
	RootDir  string `json:"root_dir"`
	Duration string `json:"duration,omitempty"`
}

// Entry describes one scanned image and its fingerprints.
type Entry struct {
	Path        string `json:"path"`   // relative to root_dir, forward slashes
	Format      string `json:"format"` // "png", "jpeg", ...
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int64  `json:"size"`         // bytes on disk
	ContentHash string `json:"content_hash"` // first 16 hex chars of xxhash64
	PHash       string `json:"phash"`
	BlockHash   string `json:"blockhash"`
	DHash       string `json:"dhash,omitempty"` // 64-bit difference hash, hex
}

// Group is a set of entries that are exact or near duplicates.
type Group struct {
	Keys        []string `json:"keys"`         // sorted
	Exact       bool     `json:"exact"`        // all members share a content hash
	MaxDistance int      `json:"max_distance"` // largest pairwise phash distance
}

// Stats aggregates scan metrics.
type Stats struct {
	TotalImages     int   `json:"total_images"`
	TotalBytes      int64 `json:"total_bytes"`
	DuplicateGroups int   `json:"duplicate_groups"`
	DuplicateImages int   `json:"duplicate_images"` // members of any group
	Failed          int   `json:"failed,omitempty"` // files that could not be fingerprinted
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
