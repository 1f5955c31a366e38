package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Index collects the paths to the performance history files of a benchmark,
// grouped by algorithm configuration name and problem name. It is persisted
// as the results file of an output directory, so that later invocations can
// resume a benchmark or generate reports without re-running solvers.
type Index struct {
	paths map[string]map[string][]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{paths: make(map[string]map[string][]string)}
}

// LoadIndex reads an index from a JSON file, checking that every referenced
// history file exists.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	var decoded map[string]map[string][]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode results file %s: %w", path, err)
	}
	index := NewIndex()
	for configurationName, problems := range decoded {
		for problemName, paths := range problems {
			for _, historyPath := range paths {
				if err := index.AddPath(configurationName, problemName, historyPath); err != nil {
					return nil, err
				}
			}
		}
	}
	return index, nil
}

// AddPath records the path to a performance history. The path is resolved to
// an absolute one and must exist.
func (idx *Index) AddPath(configurationName, problemName, path string) error {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve history path: %w", err)
	}
	if _, err := os.Stat(absolutePath); err != nil {
		return fmt.Errorf("the path to the history does not exist: %s", path)
	}
	if idx.paths[configurationName] == nil {
		idx.paths[configurationName] = make(map[string][]string)
	}
	idx.paths[configurationName][problemName] = append(
		idx.paths[configurationName][problemName], absolutePath,
	)
	return nil
}

// ToFile saves the index as a JSON file.
func (idx *Index) ToFile(path string) error {
	data, err := json.MarshalIndent(idx.paths, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// Configurations returns the algorithm configuration names in alphabetical
// order.
func (idx *Index) Configurations() []string {
	names := make([]string, 0, len(idx.paths))
	for name := range idx.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Problems returns the names of the problems with histories for the given
// algorithm configuration, in alphabetical order.
func (idx *Index) Problems(configurationName string) ([]string, error) {
	problems, ok := idx.paths[configurationName]
	if !ok {
		return nil, fmt.Errorf(
			"there are no results for the algorithm configuration %q", configurationName,
		)
	}
	names := make([]string, 0, len(problems))
	for name := range problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Paths returns the history paths recorded for an algorithm configuration on
// a problem, in insertion order.
func (idx *Index) Paths(configurationName, problemName string) ([]string, error) {
	problems, ok := idx.paths[configurationName]
	if !ok {
		return nil, fmt.Errorf(
			"there are no results for the algorithm configuration %q", configurationName,
		)
	}
	paths, ok := problems[problemName]
	if !ok {
		return nil, fmt.Errorf(
			"there are no results for the algorithm configuration %q on the problem %q",
			configurationName, problemName,
		)
	}
	copied := make([]string, len(paths))
	copy(copied, paths)
	return copied, nil
}

// Contains reports whether the index records the given history path for an
// algorithm configuration on a problem.
func (idx *Index) Contains(configurationName, problemName, path string) bool {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, recorded := range idx.paths[configurationName][problemName] {
		if recorded == absolutePath {
			return true
		}
	}
	return false
}
