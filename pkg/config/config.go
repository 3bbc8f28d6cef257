package config

import (
	"fmt"
	"sort"
	"strings"
)

type Feature int

const (
	FeatNestedReturns Feature = iota
	FeatSuppressCascade
	FeatCount
)

type Warning int

const (
	WarnMainParams Warning = iota
	WarnUnresolvedCall
	WarnShadow
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features    map[Feature]Info
	Warnings    map[Warning]Info
	FeatureMap  map[string]Feature
	WarningMap  map[string]Warning
	ProfileName string
}

const (
	ProfileReference = "reference"
	ProfileStrict    = "strict"
)

func NewConfig() *Config {
	cfg := &Config{
		Features:    make(map[Feature]Info),
		Warnings:    make(map[Warning]Info),
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		ProfileName: ProfileReference,
	}

	features := map[Feature]Info{
		FeatNestedReturns:   {"nested-returns", false, "Check every return against the function's declared type, including returns nested in if/while."},
		FeatSuppressCascade: {"suppress-cascade", false, "Do not report an error produced by an operation whose operand already failed to type."},
	}

	warnings := map[Warning]Info{
		WarnMainParams:     {"main-params", true, "Warn when main declares parameters."},
		WarnUnresolvedCall: {"unresolved-call", true, "Warn on calls to functions that are not defined before use."},
		WarnShadow:         {"shadow", false, "Warn when a declaration hides a name from an enclosing scope."},
		WarnPedantic:       {"pedantic", false, "Issue all warnings demanded by the strict profile."},
		WarnExtra:          {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// Clone returns an independent copy, so a per-file override cannot leak into
// other files checked with the same base configuration.
func (c *Config) Clone() *Config {
	out := NewConfig()
	for ft, info := range c.Features {
		out.Features[ft] = info
	}
	for wt, info := range c.Warnings {
		out.Warnings[wt] = info
	}
	out.ProfileName = c.ProfileName
	return out
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyProfile switches to a named set of features and warnings. The
// reference profile reproduces the classic checker; strict turns on every
// redesign and every warning.
func (c *Config) ApplyProfile(name string) error {
	switch name {
	case ProfileReference:
		c.SetFeature(FeatNestedReturns, false)
		c.SetFeature(FeatSuppressCascade, false)
	case ProfileStrict:
		for i := Feature(0); i < FeatCount; i++ {
			c.SetFeature(i, true)
		}
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, true)
		}
	default:
		return fmt.Errorf("unsupported profile '%s'. Supported: '%s', '%s'", name, ProfileReference, ProfileStrict)
	}
	c.ProfileName = name
	return nil
}

// applyFlag handles one -W/-F style flag. It reports whether the name was
// recognized.
func (c *Config) applyFlag(flag string) bool {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return true
	}

	if name == "pedantic" && isWarning {
		c.SetWarning(WarnPedantic, true)
		return true
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
			return true
		}
		return false
	}
	if f, ok := c.FeatureMap[name]; ok {
		c.SetFeature(f, enable)
		return true
	}
	return false
}

// ProcessFlags applies the -W/-F flags reported by visitFlag. Group switches
// (-Wall, -Wno-all, -pedantic) go first so individual flags can refine them.
// Unknown names are returned.
func (c *Config) ProcessFlags(visitFlag func(fn func(name string))) []string {
	var unknown []string
	isGroup := func(name string) bool { return name == "Wall" || name == "Wno-all" || name == "pedantic" }
	visitFlag(func(name string) {
		if isGroup(name) {
			c.applyFlag("-" + name)
		}
	})
	visitFlag(func(name string) {
		if !isGroup(name) && !c.applyFlag("-"+name) {
			unknown = append(unknown, name)
		}
	})
	return unknown
}

// Fingerprint is a stable rendering of every setting that can change a
// checking result. It feeds cache keys.
func (c *Config) Fingerprint() string {
	var parts []string
	for _, info := range c.Features {
		parts = append(parts, fmt.Sprintf("F%s=%t", info.Name, info.Enabled))
	}
	for _, info := range c.Warnings {
		parts = append(parts, fmt.Sprintf("W%s=%t", info.Name, info.Enabled))
	}
	sort.Strings(parts)
	return c.ProfileName + ";" + strings.Join(parts, ";")
}
