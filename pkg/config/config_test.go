package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func enabled(c *Config) (features, warnings []string) {
	for _, info := range c.Features {
		if info.Enabled {
			features = append(features, info.Name)
		}
	}
	for _, info := range c.Warnings {
		if info.Enabled {
			warnings = append(warnings, info.Name)
		}
	}
	sort.Strings(features)
	sort.Strings(warnings)
	return features, warnings
}

func TestDefaults(t *testing.T) {
	c := NewConfig()
	features, warnings := enabled(c)
	if len(features) != 0 {
		t.Errorf("features enabled by default: %v", features)
	}
	if diff := cmp.Diff([]string{"extra", "main-params", "unresolved-call"}, warnings); diff != "" {
		t.Errorf("default warnings mismatch (-want +got):\n%s", diff)
	}
	if c.ProfileName != ProfileReference {
		t.Errorf("default profile = %q", c.ProfileName)
	}
}

func TestProfiles(t *testing.T) {
	c := NewConfig()
	if err := c.ApplyProfile(ProfileStrict); err != nil {
		t.Fatal(err)
	}
	features, warnings := enabled(c)
	if len(features) != int(FeatCount) || len(warnings) != int(WarnCount) {
		t.Errorf("strict enabled %v and %v", features, warnings)
	}

	if err := c.ApplyProfile(ProfileReference); err != nil {
		t.Fatal(err)
	}
	if c.IsFeatureEnabled(FeatNestedReturns) || c.IsFeatureEnabled(FeatSuppressCascade) {
		t.Error("reference profile left a redesign enabled")
	}

	err := c.ApplyProfile("lenient")
	if err == nil || !strings.Contains(err.Error(), "unsupported profile 'lenient'") {
		t.Errorf("unknown profile error = %v", err)
	}
	if c.ProfileName != ProfileReference {
		t.Errorf("failed ApplyProfile changed the profile to %q", c.ProfileName)
	}
}

func TestProcessFlags(t *testing.T) {
	visit := func(names ...string) func(func(string)) {
		return func(fn func(string)) {
			for _, n := range names {
				fn(n)
			}
		}
	}

	c := NewConfig()
	unknown := c.ProcessFlags(visit("Wshadow", "Wno-all", "Fsuppress-cascade", "Wbogus", "Fno-nested-returns"))
	if diff := cmp.Diff([]string{"Wbogus"}, unknown); diff != "" {
		t.Errorf("unknown flags mismatch (-want +got):\n%s", diff)
	}
	// Wno-all is applied before Wshadow even though it came later.
	features, warnings := enabled(c)
	if diff := cmp.Diff([]string{"shadow"}, warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"suppress-cascade"}, features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}

	c = NewConfig()
	c.ProcessFlags(visit("Wall"))
	if c.IsWarningEnabled(WarnPedantic) || !c.IsWarningEnabled(WarnShadow) {
		t.Error("-Wall should enable every warning except pedantic")
	}
	c.ProcessFlags(visit("pedantic"))
	if !c.IsWarningEnabled(WarnPedantic) {
		t.Error("-pedantic did not enable pedantic warnings")
	}
}

func TestCloneAndFingerprint(t *testing.T) {
	c := NewConfig()
	clone := c.Clone()
	if c.Fingerprint() != clone.Fingerprint() {
		t.Fatal("clone fingerprint differs")
	}

	clone.SetFeature(FeatNestedReturns, true)
	if c.IsFeatureEnabled(FeatNestedReturns) {
		t.Error("changing a clone changed the original")
	}
	if c.Fingerprint() == clone.Fingerprint() {
		t.Error("fingerprint ignores features")
	}

	other := NewConfig()
	other.SetWarning(WarnShadow, true)
	if c.Fingerprint() == other.Fingerprint() {
		t.Error("fingerprint ignores warnings")
	}
	if !strings.HasPrefix(c.Fingerprint(), "reference;") {
		t.Errorf("fingerprint %q does not lead with the profile", c.Fingerprint())
	}
}

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindFile(t *testing.T) {
	root := t.TempDir()
	want := writeFile(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok, err := FindFile(nested)
	if err != nil || !ok {
		t.Fatalf("FindFile = %q, %v, %v", got, ok, err)
	}
	if got != want {
		t.Errorf("FindFile = %q, want %q", got, want)
	}
}

func TestLoadAndApply(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
[check]
profile = "strict"
jobs = 3
cache = false

[features]
suppress-cascade = false

[warnings]
pedantic = false
`)
	f, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Check.Jobs != 3 || f.Check.Cache == nil || *f.Check.Cache {
		t.Errorf("check section = %+v", f.Check)
	}

	c := NewConfig()
	if err := f.Apply(c); err != nil {
		t.Fatal(err)
	}
	if c.ProfileName != ProfileStrict {
		t.Errorf("profile = %q", c.ProfileName)
	}
	if !c.IsFeatureEnabled(FeatNestedReturns) || c.IsFeatureEnabled(FeatSuppressCascade) {
		t.Error("file entries should refine the profile")
	}
	if c.IsWarningEnabled(WarnPedantic) || !c.IsWarningEnabled(WarnShadow) {
		t.Error("warning entries not applied on top of the profile")
	}
}

func TestLoadFileErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "[check]\nthreads = 2\n")
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), `unknown key "check.threads"`) {
		t.Errorf("unknown key error = %v", err)
	}

	path = writeFile(t, t.TempDir(), "[warnings]\nshadows = true\n")
	f, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Apply(NewConfig()); err == nil || err.Error() != "unknown warning 'shadows'" {
		t.Errorf("unknown warning error = %v", err)
	}
}
