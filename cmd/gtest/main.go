// gtest runs the checker over a directory of Crux programs and compares each
// run against a golden .<file>.json recorded next to the source.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

// Golden is the recorded outcome of checking one source file.
type Golden struct {
	SourceHash string    `json:"source_hash"`
	Args       []string  `json:"args,omitempty"`
	Result     Execution `json:"result"`
}

type FileTestResult struct {
	File        string     `json:"file"`
	Status      string     `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message     string     `json:"message,omitempty"`
	Diff        string     `json:"diff,omitempty"`
	SourceHash  string     `json:"source_hash,omitempty"`
	CheckerHash string     `json:"checker_hash,omitempty"`
	Golden      *Execution `json:"golden,omitempty"`
	Actual      *Execution `json:"actual,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	checker        = flag.String("checker", "./gcrux", "Path to the checker under test.")
	checkerArgs    = flag.String("checker-args", "", "Extra arguments for the checker (space-separated).")
	generateGolden = flag.String("generate-golden", "", "Record golden .json files for the given glob pattern(s) (space-separated).")
	testFiles      = flag.String("test-files", "tests/*.crx", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each checker run.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	useCache       = flag.Bool("cached", false, "Reuse passing results from the previous report when neither the source nor the checker changed.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
	ignoreLines    = flag.String("ignore-lines", "", "Comma-separated substrings to ignore during output comparison.")
)

var (
	red    = color.New(color.FgHiRed).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()

	errTag  = red("[ERROR]")
	warnTag = yellow("[WARN]")
	okTag   = green("[SUCCESS]")
)

func logf(tag, format string, args ...interface{}) {
	log.Printf(tag+" "+format, args...)
}

// filePlaceholder replaces the source path in recorded output so goldens do
// not depend on where the repository is checked out.
const filePlaceholder = "__FILE__"

func main() {
	flag.Parse()
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	var code int
	if *generateGolden != "" {
		code = handleGenerateGolden(ctx, *generateGolden)
	} else {
		code = handleRunTestSuite(ctx)
	}
	stop()
	os.Exit(code)
}

func getJSONPath(sourceFile string) string {
	jsonFileName := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, jsonFileName)
	}
	return filepath.Join(filepath.Dir(sourceFile), jsonFileName)
}

// hashFile computes the xxhash of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func handleGenerateGolden(ctx context.Context, patterns string) int {
	files, err := expandGlobPatterns(patterns)
	if err != nil {
		logf(errTag, "Invalid glob pattern(s): %v", err)
		return 1
	}
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0o755); err != nil {
			logf(errTag, "Failed to create directory %s: %v", *jsonDir, err)
			return 1
		}
	}

	status := 0
	for _, sourceFile := range files {
		if err := writeGolden(ctx, sourceFile); err != nil {
			logf(errTag, "%s: %v", sourceFile, err)
			status = 1
			continue
		}
		logf(okTag, "Golden file created at %s", getJSONPath(sourceFile))
	}
	return status
}

func writeGolden(ctx context.Context, sourceFile string) error {
	fileHash, err := hashFile(sourceFile)
	if err != nil {
		return fmt.Errorf("could not hash source file: %w", err)
	}
	golden := Golden{
		SourceHash: fileHash,
		Args:       strings.Fields(*checkerArgs),
		Result:     runChecker(ctx, sourceFile),
	}
	if golden.Result.TimedOut {
		return fmt.Errorf("checker timed out after %s", *timeout)
	}
	jsonData, err := json.MarshalIndent(golden, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal golden data: %w", err)
	}
	return os.WriteFile(getJSONPath(sourceFile), jsonData, 0o644)
}

func handleRunTestSuite(ctx context.Context) int {
	if _, err := exec.LookPath(*checker); err != nil {
		logf(errTag, "Checker '%s' not found: %v", *checker, err)
		return 1
	}
	checkerHash, err := hashFile(*checker)
	if err != nil {
		checkerHash = ""
	}

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		logf(errTag, "Invalid glob pattern(s): %v", err)
		return 1
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return 0
	}

	previousResults := make(TestSuiteResults)
	if prevData, err := os.ReadFile(reportPath()); err == nil && *useCache {
		if json.Unmarshal(prevData, &previousResults) != nil {
			logf(warnTag, "Could not parse previous results file %s. Cache will not be used.", reportPath())
			previousResults = make(TestSuiteResults)
		}
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	results := make([]*FileTestResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*jobs, 1))

	// Files with identical content are checked once.
	seenHashes := make(map[string]string)
	for i, file := range files {
		if skipList[file] || skipList[filepath.Base(file)] {
			results[i] = &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			results[i] = &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			results[i] = &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file

		if prev, ok := previousResults[file]; ok && prev.Status == "PASS" && prev.SourceHash == fileHash && checkerHash != "" && prev.CheckerHash == checkerHash {
			cached := *prev
			cached.Message = strings.TrimSuffix(cached.Message, " (cached)") + " (cached)"
			results[i] = &cached
			continue
		}
		g.Go(func() error {
			res := testFile(gctx, file, fileHash)
			res.SourceHash, res.CheckerHash = fileHash, checkerHash
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	printSummary(results)
	if hasFailures(writeJSONReport(results)) {
		return 1
	}
	return 0
}

func testFile(ctx context.Context, file, fileHash string) *FileTestResult {
	goldenFile := getJSONPath(file)
	goldenData, err := os.ReadFile(goldenFile)
	if os.IsNotExist(err) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read golden file %s: %v", goldenFile, err)}
	}
	var golden Golden
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}
	if golden.SourceHash != fileHash {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Golden file %s is out of date; regenerate it with -generate-golden", goldenFile)}
	}

	actual := runChecker(ctx, file)
	return compareResults(file, &golden.Result, &actual)
}

func compareResults(file string, golden, actual *Execution) *FileTestResult {
	var diffs strings.Builder
	failed := false

	if actual.TimedOut {
		failed = true
		fmt.Fprintf(&diffs, "Checker timed out after %s\n", *timeout)
	}
	if golden.ExitCode != actual.ExitCode {
		failed = true
		fmt.Fprintf(&diffs, "Exit Code mismatch:\n  - Golden: %d\n  - Actual: %d\n", golden.ExitCode, actual.ExitCode)
	}

	ignored := ignoredSubstrings()
	if d := cmp.Diff(filterOutput(golden.Stdout, ignored), filterOutput(actual.Stdout, ignored)); d != "" {
		failed = true
		fmt.Fprintf(&diffs, "STDOUT mismatch:\n%s", d)
	}
	if d := cmp.Diff(filterOutput(golden.Stderr, ignored), filterOutput(actual.Stderr, ignored)); d != "" {
		failed = true
		fmt.Fprintf(&diffs, "STDERR mismatch:\n%s", d)
	}

	if failed {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Checker output or exit code mismatch", Diff: diffs.String(), Golden: golden, Actual: actual}
	}
	return &FileTestResult{File: file, Status: "PASS", Message: "Output matches golden file", Golden: golden, Actual: actual}
}

// runChecker checks one file with colors off and the file path normalized.
func runChecker(ctx context.Context, sourceFile string) Execution {
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	args := append([]string{"--no-color"}, strings.Fields(*checkerArgs)...)
	args = append(args, sourceFile)
	res := executeCommand(ctx, *checker, args...)
	res.Stdout = strings.ReplaceAll(res.Stdout, sourceFile, filePlaceholder)
	res.Stderr = strings.ReplaceAll(res.Stderr, sourceFile, filePlaceholder)
	return res
}

// executeCommand runs a command under ctx and captures its output.
func executeCommand(ctx context.Context, command string, args ...string) Execution {
	startTime := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	execResult := Execution{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		execResult.TimedOut = true
		execResult.ExitCode = -1
	case err != nil:
		if exitErr, ok := err.(*exec.ExitError); ok {
			execResult.ExitCode = exitErr.ExitCode()
		} else {
			execResult.ExitCode = -2
			execResult.Stderr += "\nExecution error: " + err.Error()
		}
	}
	return execResult
}

func ignoredSubstrings() []string {
	if *ignoreLines == "" {
		return nil
	}
	return strings.Split(*ignoreLines, ",")
}

// filterOutput removes lines containing any of the given substrings.
func filterOutput(output string, ignored []string) string {
	if len(ignored) == 0 || output == "" {
		return output
	}
	lines := strings.Split(output, "\n")
	kept := lines[:0]
	for _, line := range lines {
		drop := false
		for _, sub := range ignored {
			if sub != "" && strings.Contains(line, sub) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int
	var total time.Duration
	var timed int

	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s...\n", cyan(result.File))

		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%s] %s\n", green("PASS"), result.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%s] %s\n", red("FAIL"), result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%s] %s\n", yellow("SKIP"), result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%s] %s\n", red("ERROR"), result.Message)
		}

		if result.Actual != nil {
			timed++
			total += result.Actual.Duration
			if *verbose {
				fmt.Printf("  check: %s  exit: %d\n", formatDuration(result.Actual.Duration), result.Actual.ExitCode)
			}
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%s %s, %s, %s, %s, %d Total\n", bold("Test Summary:"),
		green(passed, " Passed"), red(failed, " Failed"), yellow(skipped, " Skipped"), red(errored, " Errored"), len(results))
	if timed > 0 {
		fmt.Printf("Average check time: %s\n", strings.TrimSpace(formatDuration(total/time.Duration(timed))))
	}
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		switch trimmed := strings.TrimSpace(line); {
		case strings.HasPrefix(trimmed, "-"):
			line = red(line)
		case strings.HasPrefix(trimmed, "+"):
			line = green(line)
		}
		builder.WriteString("    " + line + "\n")
	}
	return builder.String()
}

func reportPath() string {
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, *outputJSON)
	}
	return *outputJSON
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		logf(errTag, "Failed to marshal results to JSON: %v", err)
		return resultsMap
	}
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0o755); err != nil {
			logf(errTag, "Failed to create dir %s: %v", *jsonDir, err)
		}
	}
	if err := os.WriteFile(reportPath(), jsonData, 0o644); err != nil {
		logf(errTag, "Failed to write JSON report to %s: %v", reportPath(), err)
	} else {
		fmt.Printf("Full test report saved to %s\n", reportPath())
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if seen[absFile] {
				continue
			}
			if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
				allFiles = append(allFiles, absFile)
				seen[absFile] = true
			}
		}
	}
	return allFiles, nil
}
