// Package tuning handles corvid.toml runtime tuning profiles.
package tuning

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/corvid-lang/corvid/vm"
)

// Profile represents a corvid.toml tuning configuration.
type Profile struct {
	Memory Memory `toml:"memory"`
	GC     GC     `toml:"gc"`
	Debug  Debug  `toml:"debug"`
}

// Memory configures the allocator budget.
type Memory struct {
	// LimitBytes caps heap allocation; 0 means unlimited.
	LimitBytes int64 `toml:"limit-bytes"`
}

// GC configures the cycle collector.
type GC struct {
	// Threshold is the allocation count between automatic passes;
	// 0 disables automatic collection.
	Threshold int `toml:"threshold"`
}

// Debug selects internal event logging.
type Debug struct {
	// Dump lists event categories: "free", "gc", "gc-free", "leaks",
	// "atoms", "mem".
	Dump []string `toml:"dump"`
}

// DefaultProfile returns the profile used when no corvid.toml exists.
func DefaultProfile() *Profile {
	return &Profile{
		GC: GC{Threshold: vm.DefaultGCThreshold},
	}
}

// Load parses a tuning profile from the given path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	p := DefaultProfile()
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return p, nil
}

// Apply configures a runtime from the profile. It returns an error for
// unknown dump categories.
func (p *Profile) Apply(rt *vm.Runtime) error {
	if p.Memory.LimitBytes > 0 {
		rt.SetMemoryLimit(p.Memory.LimitBytes)
	}
	rt.SetGCThreshold(p.GC.Threshold)

	if len(p.Debug.Dump) > 0 {
		flags, err := vm.ParseDumpFlags(p.Debug.Dump)
		if err != nil {
			return err
		}
		rt.SetDumpFlags(flags)
	}
	return nil
}
