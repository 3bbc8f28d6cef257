// Package driver runs the front end over source files: scanning, parsing,
// and type checking, optionally in parallel and through the result cache.
package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"github.com/xplshn/gcrux/pkg/ast"
	"github.com/xplshn/gcrux/pkg/cache"
	"github.com/xplshn/gcrux/pkg/config"
	"github.com/xplshn/gcrux/pkg/lexer"
	"github.com/xplshn/gcrux/pkg/parser"
	"github.com/xplshn/gcrux/pkg/token"
	"github.com/xplshn/gcrux/pkg/typeChecker"
	"github.com/xplshn/gcrux/pkg/util"
)

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path      string
	FileIndex int

	// Root and Check are nil when the result was served from the cache.
	Root  *ast.Node
	Check *typeChecker.Result

	ParseReport string
	TypeReport  string
	Warnings    []util.Diagnostic
	Cached      bool

	// Err is set when the file could not be read.
	Err error
}

func (r *FileResult) HasParseError() bool { return r.ParseReport != "" }
func (r *FileResult) HasTypeError() bool  { return r.TypeReport != "" }

// OK reports whether the file was read, parsed, and checked without errors.
func (r *FileResult) OK() bool {
	return r.Err == nil && !r.HasParseError() && !r.HasTypeError()
}

// Options tunes CheckFiles.
type Options struct {
	// Jobs bounds the number of files checked at once. Zero means GOMAXPROCS.
	Jobs  int
	Cache *cache.Cache
}

// CheckSource runs the whole front end over one program. The type checker
// only runs when parsing succeeded.
func CheckSource(name string, src []byte, cfg *config.Config) *FileResult {
	content := []rune(string(src))
	idx := util.AddSourceFile(name, content)
	res := &FileResult{Path: name, FileIndex: idx}

	util.Info("Parsing %s...", name)
	tokens := lexer.NewLexer(content, idx).All()
	p := parser.NewParser(tokens, cfg)
	res.Root = p.Parse()
	res.Warnings = append(res.Warnings, p.Warnings()...)
	if p.HasError() {
		res.ParseReport = p.ErrorReport()
		return res
	}

	util.Info("Type checking %s...", name)
	res.Check = typeChecker.NewTypeChecker(cfg).Check(res.Root)
	res.TypeReport = res.Check.ErrorReport()
	res.Warnings = append(res.Warnings, res.Check.Warnings...)
	return res
}

// CheckFiles checks every path with its own parser, symbol table, and
// checker state. Results come back in input order. A file that cannot be
// read yields a result with Err set; only cancellation fails the call.
func CheckFiles(ctx context.Context, paths []string, cfg *config.Config, opts Options) ([]*FileResult, error) {
	results := make([]*FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	fingerprint := cfg.Fingerprint()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			data, err := os.ReadFile(path)
			if err != nil {
				results[i] = &FileResult{Path: path, FileIndex: -1, Err: fmt.Errorf("reading %s: %w", path, err)}
				return nil
			}

			if opts.Cache == nil {
				results[i] = CheckSource(path, data, cfg)
				return nil
			}

			key := cache.KeyFor(data, fingerprint)
			var payload cache.Payload
			if hit, err := opts.Cache.Get(key, &payload); err != nil {
				util.Info("ignoring cache entry for %s: %v", path, err)
			} else if hit && payload.Path == path {
				util.Info("Using cached result for %s", path)
				results[i] = fromPayload(path, data, &payload)
				return nil
			}

			res := CheckSource(path, data, cfg)
			if err := opts.Cache.Put(key, toPayload(res, key)); err != nil {
				util.Info("could not cache %s: %v", path, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func toPayload(res *FileResult, key cache.Key) *cache.Payload {
	p := &cache.Payload{
		Path:        res.Path,
		ContentHash: uint64(key),
		ParseReport: res.ParseReport,
		TypeReport:  res.TypeReport,
		OK:          res.OK(),
	}
	for _, d := range res.Warnings {
		kind, err := safecast.Conv[uint8](int(d.Warning))
		if err != nil {
			continue
		}
		p.Warnings = append(p.Warnings, cache.Warning{
			Line: d.Tok.Line, Column: d.Tok.Column, Len: d.Tok.Len,
			Kind: kind, Message: d.Message,
		})
	}
	return p
}

func fromPayload(path string, src []byte, p *cache.Payload) *FileResult {
	idx := util.AddSourceFile(path, []rune(string(src)))
	res := &FileResult{
		Path:        path,
		FileIndex:   idx,
		ParseReport: p.ParseReport,
		TypeReport:  p.TypeReport,
		Cached:      true,
	}
	for _, w := range p.Warnings {
		res.Warnings = append(res.Warnings, util.Diagnostic{
			Tok:     token.Token{FileIndex: idx, Line: w.Line, Column: w.Column, Len: w.Len},
			Warning: config.Warning(w.Kind),
			Message: w.Message,
		})
	}
	return res
}
