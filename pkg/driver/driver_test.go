package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/gcrux/pkg/cache"
	"github.com/xplshn/gcrux/pkg/config"
)

const (
	goodSrc       = "func main(): void {\n\t::printInt(1);\n}\n"
	badSrc        = "func main(): void {\n\tvar x: int;\n\tlet x = true;\n}\n"
	unresolvedSrc = "func main(): void {\n\tlet x = 1;\n}\n"
	brokenSrc     = "var x: int\n"
)

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCheckSource(t *testing.T) {
	res := CheckSource("good.crx", []byte(goodSrc), nil)
	if !res.OK() || res.Root == nil || res.Check == nil {
		t.Fatalf("good program: %+v", res)
	}

	res = CheckSource("bad.crx", []byte(badSrc), nil)
	if res.HasParseError() || !res.HasTypeError() {
		t.Fatalf("bad program: parse=%q type=%q", res.ParseReport, res.TypeReport)
	}
	if diff := cmp.Diff("TypeError(3,2)[Cannot assign Address(int) using bool.]", res.TypeReport); diff != "" {
		t.Errorf("type report mismatch (-want +got):\n%s", diff)
	}

	res = CheckSource("unresolved.crx", []byte(unresolvedSrc), nil)
	if !res.HasParseError() || res.HasTypeError() || res.Check != nil {
		t.Fatalf("an unresolved name should stop before type checking: %+v", res)
	}
	if want := "ResolveSymbolError(2,6)[Could not find x.]"; res.ParseReport != want {
		t.Errorf("parse report = %q, want %q", res.ParseReport, want)
	}

	res = CheckSource("broken.crx", []byte(brokenSrc), nil)
	if !res.HasParseError() || res.Check != nil {
		t.Fatalf("a syntax error should stop before type checking: %+v", res)
	}
	if want := "SyntaxError(2,1)[Expected SEMICOLON but got EOF.]"; res.ParseReport != want {
		t.Errorf("syntax report = %q, want %q", res.ParseReport, want)
	}
}

func TestCheckFilesOrder(t *testing.T) {
	dir := writeSources(t, map[string]string{"a.crx": goodSrc, "b.crx": badSrc, "c.crx": brokenSrc})
	paths := []string{
		filepath.Join(dir, "c.crx"),
		filepath.Join(dir, "missing.crx"),
		filepath.Join(dir, "a.crx"),
		filepath.Join(dir, "b.crx"),
	}

	results, err := CheckFiles(context.Background(), paths, config.NewConfig(), Options{Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d is for %s, want %s", i, r.Path, paths[i])
		}
	}
	if !results[0].HasParseError() {
		t.Error("c.crx should fail to parse")
	}
	if !errors.Is(results[1].Err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", results[1].Err)
	}
	if !results[2].OK() {
		t.Errorf("a.crx: %s", results[2].TypeReport)
	}
	if !results[3].HasTypeError() {
		t.Error("b.crx should have type errors")
	}
}

func TestCheckFilesCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c, err := cache.Open("gcrux-test")
	if err != nil {
		t.Fatal(err)
	}
	src := "var y: int;\nfunc f(): void {\n\t::f();\n\tlet y = true;\n}\n"
	dir := writeSources(t, map[string]string{"warn.crx": src})
	paths := []string{filepath.Join(dir, "warn.crx")}
	cfg := config.NewConfig()

	first, err := CheckFiles(context.Background(), paths, cfg, Options{Cache: c})
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Cached {
		t.Fatal("first run should not be served from the cache")
	}

	second, err := CheckFiles(context.Background(), paths, cfg, Options{Cache: c})
	if err != nil {
		t.Fatal(err)
	}
	got := second[0]
	if !got.Cached || got.Root != nil || got.Check != nil {
		t.Fatalf("second run was not a cache hit: %+v", got)
	}
	if diff := cmp.Diff(first[0].TypeReport, got.TypeReport); diff != "" {
		t.Errorf("cached report mismatch (-first +cached):\n%s", diff)
	}
	if len(first[0].Warnings) != 1 {
		t.Fatalf("first run produced %d warnings, want 1", len(first[0].Warnings))
	}
	if len(got.Warnings) != 1 || got.Warnings[0].String() != first[0].Warnings[0].String() {
		t.Errorf("cached %d warnings, want %d", len(got.Warnings), len(first[0].Warnings))
	}

	// A different configuration is a different key.
	strict := config.NewConfig()
	if err := strict.ApplyProfile(config.ProfileStrict); err != nil {
		t.Fatal(err)
	}
	third, err := CheckFiles(context.Background(), paths, strict, Options{Cache: c})
	if err != nil {
		t.Fatal(err)
	}
	if third[0].Cached {
		t.Error("a changed configuration reused a cached result")
	}
}

func TestCheckFilesCanceled(t *testing.T) {
	dir := writeSources(t, map[string]string{"a.crx": goodSrc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CheckFiles(ctx, []string{filepath.Join(dir, "a.crx")}, config.NewConfig(), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("CheckFiles on a canceled context = %v, want context.Canceled", err)
	}
}
