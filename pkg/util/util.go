package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/xplshn/gcrux/pkg/config"
	"github.com/xplshn/gcrux/pkg/token"
)

// Diagnostic is a warning produced while parsing or checking. Libraries hand
// these back to the caller; only the driver prints them.
type Diagnostic struct {
	Tok     token.Token
	Warning config.Warning
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("Warning(%d,%d)[%s]", d.Tok.Line, d.Tok.Column, d.Message)
}

// NewWarning builds a Diagnostic if wt is enabled in cfg.
func NewWarning(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) (Diagnostic, bool) {
	if cfg == nil || !cfg.IsWarningEnabled(wt) {
		return Diagnostic{}, false
	}
	return Diagnostic{Tok: tok, Warning: wt, Message: fmt.Sprintf(format, args...)}, true
}

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var (
	mu          sync.Mutex
	out         io.Writer = os.Stderr
	sourceFiles []SourceFileRecord
	verbose     bool

	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	infoColor  = color.New(color.FgCyan)
	caretColor = color.New(color.FgGreen)
)

// SetOutput redirects every message printed by this package.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// AddSourceFile registers one more file and returns the index tokens from it
// should carry.
func AddSourceFile(name string, content []rune) int {
	mu.Lock()
	defer mu.Unlock()
	sourceFiles = append(sourceFiles, SourceFileRecord{Name: name, Content: content})
	return len(sourceFiles) - 1
}

// findFileAndLine converts a global token to a file-specific location
func findFileAndLine(tok token.Token) (filename string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(sourceFiles) {
		return "unknown", tok.Line, tok.Column
	}
	return sourceFiles[tok.FileIndex].Name, tok.Line, tok.Column
}

// printErrorLine prints the source line and a caret indicating the error position
func printErrorLine(w io.Writer, tok token.Token) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(sourceFiles) || tok.Line == 0 {
		return
	}

	content := sourceFiles[tok.FileIndex].Content
	lineNum := tok.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}
	line := content[lineStart:lineEnd]
	fmt.Fprintf(w, "  %s\n", string(line))

	// Pad by display width so the caret lines up under wide runes and tabs.
	prefixEnd := tok.Column - 1
	if prefixEnd > len(line) {
		prefixEnd = len(line)
	}
	var pad strings.Builder
	for _, r := range line[:prefixEnd] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	marker := "^"
	if tok.Len > 1 {
		marker += strings.Repeat("~", tok.Len-1)
	}
	fmt.Fprintf(w, "  %s%s\n", pad.String(), caretColor.Sprint(marker))
}

// Error prints a formatted error message anchored at tok
func Error(tok token.Token, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	filename, line, col := findFileAndLine(tok)
	fmt.Fprintf(out, "%s:%d:%d: %s ", filename, line, col, errorColor.Sprint("error:"))
	fmt.Fprintf(out, format, args...)
	fmt.Fprintln(out)
	printErrorLine(out, tok)
}

// Warn prints a formatted warning message if the corresponding warning is enabled
func Warn(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if !cfg.IsWarningEnabled(wt) {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	filename, line, col := findFileAndLine(tok)
	fmt.Fprintf(out, "%s:%d:%d: %s ", filename, line, col, warnColor.Sprint("warning:"))
	fmt.Fprintf(out, format, args...)
	fmt.Fprintf(out, " [-W%s]\n", cfg.Warnings[wt].Name)
	printErrorLine(out, tok)
}

// PrintDiagnostic prints a collected warning. It is re-checked against cfg
// in case the configuration changed after the diagnostic was produced.
func PrintDiagnostic(cfg *config.Config, d Diagnostic) {
	Warn(cfg, d.Warning, d.Tok, "%s", d.Message)
}

// Info prints a progress line when verbose output is on.
func Info(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	fmt.Fprintf(out, "gcrux: %s ", infoColor.Sprint("info:"))
	fmt.Fprintf(out, format, args...)
	fmt.Fprintln(out)
}

// Fail prints an error that has no source position, such as an I/O or
// usage failure.
func Fail(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "gcrux: %s ", errorColor.Sprint("error:"))
	fmt.Fprintf(out, format, args...)
	fmt.Fprintln(out)
}
