package logging

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// findProjectRoot walks up from this test file until it finds go.mod.
func findProjectRoot(t *testing.T) string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to get current file path")
	}

	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find go.mod to determine project root")
		}
		dir = parent
	}
}

// TestNoDirectLogging ensures all Go files log through the logging package
// instead of calling fmt.Printf, log.Printf, print, or println directly.
func TestNoDirectLogging(t *testing.T) {
	projectRoot := findProjectRoot(t)

	patterns := []*regexp.Regexp{
		regexp.MustCompile(`\bfmt\.Printf\s*\(`),
		regexp.MustCompile(`\bfmt\.Print\s*\(`),
		regexp.MustCompile(`\bfmt\.Println\s*\(`),
		regexp.MustCompile(`\blog\.Printf\s*\(`),
		regexp.MustCompile(`\blog\.Print\s*\(`),
		regexp.MustCompile(`\blog\.Println\s*\(`),
		regexp.MustCompile(`\bprintln\s*\(`),
		regexp.MustCompile(`\bprint\s*\(`),
	}

	// main.go may print version/usage output before logging is configured.
	excludePatterns := []*regexp.Regexp{
		regexp.MustCompile(`_test\.go$`),
		regexp.MustCompile(`^main\.go$`),
		regexp.MustCompile(`^vendor/`),
	}

	var violations []string

	err := filepath.Walk(projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories the Go toolchain itself ignores.
		if info.IsDir() {
			name := info.Name()
			if path != projectRoot && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		relativePath, err := filepath.Rel(projectRoot, path)
		if err != nil {
			t.Logf("warning: could not get relative path for %s: %v", path, err)
			return nil
		}
		for _, excludePattern := range excludePatterns {
			if excludePattern.MatchString(relativePath) {
				return nil
			}
		}

		file, err := os.Open(path)
		if err != nil {
			t.Logf("warning: could not open file %s: %v", path, err)
			return nil
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()

			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "//") {
				continue
			}

			for _, pattern := range patterns {
				if pattern.MatchString(line) {
					violations = append(violations,
						fmt.Sprintf("%s:%d: %s", relativePath, lineNum, trimmed))
				}
			}
		}

		return scanner.Err()
	})

	if err != nil {
		t.Fatalf("error walking directory tree: %v", err)
	}

	if len(violations) > 0 {
		t.Errorf("found %d direct logging violations; use the logging package instead:", len(violations))
		for _, violation := range violations {
			t.Errorf("  %s", violation)
		}
	}
}
