// Package report turns recorded benchmark results into a Sphinx-ready tree of
// reStructuredText pages and figures.
package report

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.rst
var templatesFS embed.FS

//go:embed assets/conf.py
var confAsset []byte

// templateFuncs holds the helpers available to the page templates.
var templateFuncs = template.FuncMap{
	// underline draws an RST heading underline matching the title length.
	"underline": func(title, char string) string {
		return strings.Repeat(char, len(title))
	},
}

var pageTemplates = template.Must(
	template.New("report").
		Funcs(templateFuncs).
		Option("missingkey=error").
		ParseFS(templatesFS, "templates/*.rst"),
)

// renderPage fills a page template into a file. Missing context keys fail the
// rendering instead of producing empty sections.
func renderPage(path, templateName string, context any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report page %s: %w", path, err)
	}
	defer file.Close()

	if err := pageTemplates.ExecuteTemplate(file, templateName, context); err != nil {
		return fmt.Errorf("failed to render report page %s: %w", path, err)
	}
	return nil
}

// writeConf copies the packaged Sphinx configuration into the report root.
func writeConf(rootDir string) error {
	path := filepath.Join(rootDir, "conf.py")
	if err := os.WriteFile(path, confAsset, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// indexContext feeds index.rst and problems_groups.rst.
type indexContext struct {
	Documents []string
}

// algorithmDescription feeds one entry of algorithms.rst.
type algorithmDescription struct {
	Name        string
	Description string
}

type algorithmsContext struct {
	Algorithms []algorithmDescription
}

type problemsListContext struct {
	ProblemsPaths []string
}

// problemContext feeds problem.rst. Optimum and TargetValues are preformatted
// with %.6g.
type problemContext struct {
	Name         string
	Description  string
	Optimum      string
	TargetValues []string
}

// groupProblemContext feeds one problem section of group.rst. Figures maps
// "data_profile" and "histories" to image paths relative to the report root;
// Results lists the per-configuration pages of the problem.
type groupProblemContext struct {
	Name    string
	Figures map[string]string
	Results []string
}

type groupContext struct {
	Name        string
	Description string
	DataProfile string
	Problems    []groupProblemContext
}

// resultsContext feeds algorithm_configuration_results.rst. Figures is keyed
// by semantic figure name; constraint figures are present only for
// constrained problems.
type resultsContext struct {
	Title   string
	Problem resultsProblemContext
	Figures map[string]string
}

type resultsProblemContext struct {
	Name             string
	ConstraintsNames []string
}
