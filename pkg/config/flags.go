package config

import (
	"strings"

	"github.com/xplshn/gcrux/pkg/cli"
)

// SetupFlagGroups registers the -W and -F switches on fs, plus -Wall,
// -Wno-all and -pedantic. The help page shows each switch's current state
// in c.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) {
	var all, noAll, pedantic bool
	fs.Bool(&all, "Wall", "", false, "Enable most warnings")
	fs.Bool(&noAll, "Wno-all", "", false, "Disable all warnings")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue every warning, including pedantic ones")

	warnings := make([]cli.FlagGroupEntry, 0, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		on, off := info.Enabled, false
		warnings = append(warnings, cli.FlagGroupEntry{Name: info.Name, Prefix: "W", Usage: info.Description, Enabled: &on, Disabled: &off})
	}
	features := make([]cli.FlagGroupEntry, 0, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		on, off := info.Enabled, false
		features = append(features, cli.FlagGroupEntry{Name: info.Name, Prefix: "F", Usage: info.Description, Enabled: &on, Disabled: &off})
	}

	fs.AddFlagGroup("Warning Flags", "", "warning", "Available Warnings:", warnings)
	fs.AddFlagGroup("Feature Flags", "", "feature", "Available Features:", features)
}

// ApplyFlags applies the -W/-F switches that were given on the command line
// to c, group switches first. It returns the names it did not recognize.
func (c *Config) ApplyFlags(fs *cli.FlagSet) []string {
	return c.ProcessFlags(func(fn func(name string)) {
		fs.Visit(func(fl *cli.Flag) {
			if isSwitch(fl.Name) {
				if on, ok := fl.Value.Get().(bool); ok && on {
					fn(fl.Name)
				}
			}
		})
	})
}

func isSwitch(name string) bool {
	return name == "pedantic" || strings.HasPrefix(name, "W") || strings.HasPrefix(name, "F")
}
