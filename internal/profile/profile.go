// Package profile holds the named scan presets and the optional YAML
// config file that overrides them.
package profile

import (
	"fmt"
	"os"
	"strings"

	"github.com/AnyUserName/imgprint/internal/blockhash"
	"github.com/AnyUserName/imgprint/internal/phash"
	"github.com/goccy/go-yaml"
)

// DefaultName is the profile used when none is requested.
const DefaultName = "default"

// Profile defines fingerprinting and grouping parameters for a scan.
type Profile struct {
	Name        string   `yaml:"profile"`
	HashSize    int      `yaml:"hash_size"`    // phash grid size
	Threshold   int      `yaml:"threshold"`    // max phash Hamming distance for a near-duplicate
	BlockBits   int      `yaml:"block_bits"`   // blockhash grid size
	BlockMethod int      `yaml:"block_method"` // 1 = even blocks, 2 = fractional
	Workers     int      `yaml:"workers"`      // 0 = NumCPU
	Extensions  []string `yaml:"extensions"`   // lowercase, with leading dot
}

var defaultExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif", ".bmp", ".tiff", ".tif"}

// Built-in profiles.
var profiles = map[string]Profile{
	"default": {
		Name:        "default",
		HashSize:    phash.DefaultHashSize,
		Threshold:   25, // ~10% of 255 bits
		BlockBits:   blockhash.DefaultBits,
		BlockMethod: int(blockhash.MethodFractional),
	},
	"strict": {
		Name:        "strict",
		HashSize:    phash.DefaultHashSize,
		Threshold:   10,
		BlockBits:   blockhash.DefaultBits,
		BlockMethod: int(blockhash.MethodFractional),
	},
	"compact": {
		Name:        "compact",
		HashSize:    8,
		Threshold:   6,
		BlockBits:   8,
		BlockMethod: int(blockhash.MethodEven),
	},
}

// Get returns a profile by name. Falls back to default if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		p.Extensions = append([]string(nil), defaultExtensions...)
		return p
	}
	p := profiles[DefaultName]
	p.Extensions = append([]string(nil), defaultExtensions...)
	if name != "" {
		p.Name = name // preserve requested name
	}
	return p
}

// Names lists the built-in profiles.
func Names() []string {
	return []string{"default", "strict", "compact"}
}

// LoadFile reads a YAML config. Its optional `profile` key selects the
// base profile; every other key present overrides that base.
func LoadFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read config: %w", err)
	}

	var head struct {
		Profile string `yaml:"profile"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Profile{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	p := Get(head.Profile)
	p.Extensions = nil
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = DefaultName
	}
	p.Extensions = normalizeExtensions(p.Extensions)
	if len(p.Extensions) == 0 {
		p.Extensions = append(p.Extensions, defaultExtensions...)
	}

	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("config %s: %w", path, err)
	}
	return p, nil
}

// Validate rejects parameters the hashers would refuse.
func (p Profile) Validate() error {
	if err := phash.CheckHashSize(p.HashSize); err != nil {
		return err
	}
	if err := blockhash.CheckBits(p.BlockBits); err != nil {
		return err
	}
	if m := blockhash.Method(p.BlockMethod); m != blockhash.MethodEven && m != blockhash.MethodFractional {
		return fmt.Errorf("%w: %d", blockhash.ErrInvalidMethod, p.BlockMethod)
	}
	if p.Threshold < 0 || p.Threshold > phash.BitLen(p.HashSize) {
		return fmt.Errorf("threshold %d out of range 0..%d", p.Threshold, phash.BitLen(p.HashSize))
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", p.Workers)
	}
	if len(p.Extensions) == 0 {
		return fmt.Errorf("no image extensions configured")
	}
	return nil
}

// ExtensionSet returns the configured extensions as a lookup set.
func (p Profile) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(p.Extensions))
	for _, e := range p.Extensions {
		set[e] = true
	}
	return set
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := map[string]bool{}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
