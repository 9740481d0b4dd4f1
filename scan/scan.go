// Package scan expands a list of input files/directories into a
// deduplicated list of absolute file paths, applying include/exclude and
// traverse-include/traverse-exclude filtering.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"duskvault/duskerr"
)

// Options configures a scan.
type Options struct {
	Inputs           []string
	Include          []string
	Exclude          []string
	TraverseInclude  []string
	TraverseExclude  []string
}

// Scanner walks Options.Inputs and produces a deduplicated file list.
type Scanner struct {
	opts Options
}

// New constructs a Scanner for the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Walk returns the deduplicated, filtered list of absolute file paths, plus
// any per-path walk errors encountered (which are warnings, not fatal).
func (s *Scanner) Walk() ([]string, []error, error) {
	includeRe, err := compilePatterns(s.opts.Include)
	if err != nil {
		return nil, nil, err
	}
	excludeRe, err := compilePatterns(s.opts.Exclude)
	if err != nil {
		return nil, nil, err
	}
	traverseIncludeRe, err := compilePatterns(s.opts.TraverseInclude)
	if err != nil {
		return nil, nil, err
	}
	traverseExcludeRe, err := compilePatterns(s.opts.TraverseExclude)
	if err != nil {
		return nil, nil, err
	}

	var files []string
	var walkErrors []error
	seen := make(map[string]bool)

	for _, input := range s.opts.Inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, nil, duskerr.Wrap(duskerr.ErrInvalidInput, fmt.Sprintf("cannot resolve %q", input), err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, nil, duskerr.Wrap(duskerr.ErrInvalidInput, fmt.Sprintf("%q is not a valid file or directory", input), err)
		}

		if !info.IsDir() {
			if !seen[abs] {
				seen[abs] = true
				files = append(files, abs)
			}
			continue
		}

		err = filepath.Walk(abs, func(path string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				walkErrors = append(walkErrors, fmt.Errorf("%s: %w", path, walkErr))
				return nil
			}
			if fi.IsDir() {
				if path == abs {
					return nil
				}
				if !traverseAllowed(fi.Name(), traverseIncludeRe, traverseExcludeRe) {
					return filepath.SkipDir
				}
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			walkErrors = append(walkErrors, err)
		}
	}

	filtered := make([]string, 0, len(files))
	for _, f := range files {
		if excludeMatches(f, excludeRe) {
			continue
		}
		if len(includeRe) > 0 && !excludeMatches(f, includeRe) {
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, walkErrors, nil
}

// compilePatterns compiles each expr as "^.*<sep><expr><sep>.*$", matching a
// path component bounded by separators, per spec.
func compilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	sep := regexp.QuoteMeta(string(filepath.Separator))
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(fmt.Sprintf("^.*%s%s%s.*$", sep, expr, sep))
		if err != nil {
			return nil, duskerr.Wrap(duskerr.ErrInvalidPattern, fmt.Sprintf("%q is not a valid regular expression", expr), err)
		}
		out = append(out, re)
	}
	return out, nil
}

func excludeMatches(path string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func traverseAllowed(dirName string, include, exclude []*regexp.Regexp) bool {
	if len(exclude) > 0 && dirNameMatches(dirName, exclude) {
		return false
	}
	if len(include) > 0 && !dirNameMatches(dirName, include) {
		return false
	}
	return true
}

// dirNameMatches checks a bare directory name (not a full path) against
// patterns compiled for full-path matching by wrapping it in separators.
func dirNameMatches(name string, patterns []*regexp.Regexp) bool {
	sep := string(filepath.Separator)
	wrapped := sep + name + sep
	for _, re := range patterns {
		if re.MatchString(wrapped) {
			return true
		}
	}
	return false
}
