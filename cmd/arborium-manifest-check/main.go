// Command arborium-manifest-check verifies that the embedded language
// manifest (internal/grammar/queries/languages.json) and the statically
// compiled grammar registry (internal/grammar/registry.go) agree: every
// manifest entry marked static_binding must have a real constructor in
// the registry and vice versa, and every entry must have the query files
// its has_highlights/has_injections flags promise.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

var errDriftDetected = errors.New("manifest drift detected")

type manifestLanguage struct {
	Name          string `json:"name"`
	StaticBinding bool   `json:"static_binding"`
	HasHighlights bool   `json:"has_highlights"`
	HasInjections bool   `json:"has_injections"`
}

type languagesManifest struct {
	Languages []manifestLanguage `json:"languages"`
}

type checkOptions struct {
	repoRoot     string
	manifestPath string
	queriesDir   string
	registryPath string
}

func defaultOptions() checkOptions {
	return checkOptions{
		repoRoot:     ".",
		manifestPath: filepath.Join("internal", "grammar", "queries", "languages.json"),
		queriesDir:   filepath.Join("internal", "grammar", "queries"),
		registryPath: filepath.Join("internal", "grammar", "registry.go"),
	}
}

func main() {
	root := &cobra.Command{
		Use:   "arborium-manifest-check",
		Short: "Verify the embedded language manifest matches the grammar registry and query files on disk",
	}

	opts := defaultOptions()
	root.Flags().StringVar(&opts.repoRoot, "repo-root", opts.repoRoot, "repository root")

	root.RunE = func(cmd *cobra.Command, _ []string) error {
		report, err := runCheck(opts)
		if err != nil {
			return err
		}
		if report.hasIssues() {
			report.print(cmd.OutOrStdout())
			return errDriftDetected
		}
		fmt.Fprintln(cmd.OutOrStdout(), "manifest OK: no drift detected")
		return nil
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type report struct {
	MissingHighlightsFile []string
	MissingInjectionsFile []string
	StaticWithoutRegistry []string
	RegistryWithoutStatic []string
}

func (r report) hasIssues() bool {
	return len(r.MissingHighlightsFile) > 0 ||
		len(r.MissingInjectionsFile) > 0 ||
		len(r.StaticWithoutRegistry) > 0 ||
		len(r.RegistryWithoutStatic) > 0
}

func (r report) print(w interface{ Write([]byte) (int, error) }) {
	printList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(w, "%s:\n", title)
		for _, item := range items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
	printList("languages missing highlights.scm", r.MissingHighlightsFile)
	printList("languages missing injections.scm despite has_injections=true", r.MissingInjectionsFile)
	printList("manifest says static_binding but registry.go has no matching entry", r.StaticWithoutRegistry)
	printList("registry.go has an entry absent from the manifest", r.RegistryWithoutStatic)
}

func runCheck(opts checkOptions) (report, error) {
	manifestPath := filepath.Join(opts.repoRoot, opts.manifestPath)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return report{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest languagesManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return report{}, fmt.Errorf("parse manifest: %w", err)
	}

	registryLanguages, err := parseRegistryLanguages(filepath.Join(opts.repoRoot, opts.registryPath))
	if err != nil {
		return report{}, fmt.Errorf("parse registry: %w", err)
	}

	var rpt report
	manifestStatic := map[string]bool{}

	for _, lang := range manifest.Languages {
		queriesDir := filepath.Join(opts.repoRoot, opts.queriesDir, lang.Name)

		if lang.HasHighlights {
			if _, err := os.Stat(filepath.Join(queriesDir, "highlights.scm")); err != nil {
				rpt.MissingHighlightsFile = append(rpt.MissingHighlightsFile, lang.Name)
			}
		}
		if lang.HasInjections {
			if _, err := os.Stat(filepath.Join(queriesDir, "injections.scm")); err != nil {
				rpt.MissingInjectionsFile = append(rpt.MissingInjectionsFile, lang.Name)
			}
		}

		if lang.StaticBinding {
			manifestStatic[lang.Name] = true
			if !registryLanguages[lang.Name] {
				rpt.StaticWithoutRegistry = append(rpt.StaticWithoutRegistry, lang.Name)
			}
		}
	}

	for name := range registryLanguages {
		if !manifestStatic[name] {
			rpt.RegistryWithoutStatic = append(rpt.RegistryWithoutStatic, name)
		}
	}

	sort.Strings(rpt.MissingHighlightsFile)
	sort.Strings(rpt.MissingInjectionsFile)
	sort.Strings(rpt.StaticWithoutRegistry)
	sort.Strings(rpt.RegistryWithoutStatic)

	return rpt, nil
}
