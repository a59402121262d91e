package main

import (
	"bufio"
	"os"
	"regexp"
)

// staticEntryRE matches one line of the staticLanguages map literal in
// internal/grammar/registry.go, e.g.:
//
//	"go":              func() *tree_sitter.Language { return ... },
//
// Parsed textually rather than imported, mirroring the teacher's own
// drift checker (internal/cmd/tsaudit/check.go), which treats the
// registry source as data rather than linking against it — this tool
// has to work even when the registry file doesn't currently compile.
var staticEntryRE = regexp.MustCompile(`^\s*"([a-zA-Z0-9_]+)":\s*func\(\)`)

func parseRegistryLanguages(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	inMap := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inMap {
			if regexp.MustCompile(`var staticLanguages`).MatchString(line) {
				inMap = true
			}
			continue
		}
		if m := staticEntryRE.FindStringSubmatch(line); m != nil {
			out[m[1]] = true
			continue
		}
		if regexp.MustCompile(`^}`).MatchString(line) {
			break
		}
	}
	return out, scanner.Err()
}
