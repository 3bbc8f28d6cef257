package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the project configuration file looked up by FindFile.
const FileName = "gcrux.toml"

// File mirrors gcrux.toml. Unset keys leave the defaults alone.
type File struct {
	Check    CheckSection    `toml:"check"`
	Features map[string]bool `toml:"features"`
	Warnings map[string]bool `toml:"warnings"`
}

type CheckSection struct {
	Profile string `toml:"profile"`
	Jobs    int    `toml:"jobs"`
	Cache   *bool  `toml:"cache"`
}

// FindFile walks up from startDir looking for gcrux.toml.
func FindFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes a configuration file. Unknown feature or warning names
// are an error so typos do not pass silently.
func LoadFile(path string) (*File, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return &f, nil
}

// Apply layers the file onto c: the profile first, then individual entries.
func (f *File) Apply(c *Config) error {
	if f.Check.Profile != "" {
		if err := c.ApplyProfile(f.Check.Profile); err != nil {
			return err
		}
	}
	for name, enabled := range f.Features {
		ft, ok := c.FeatureMap[name]
		if !ok {
			return fmt.Errorf("unknown feature '%s'", name)
		}
		c.SetFeature(ft, enabled)
	}
	for name, enabled := range f.Warnings {
		wt, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(wt, enabled)
	}
	return nil
}
