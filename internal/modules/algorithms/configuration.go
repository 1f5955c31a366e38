// Package algorithms describes the algorithm configurations compared by a benchmark.
//
// An algorithm configuration pairs an algorithm name with a set of option
// values, so that the same algorithm can enter a benchmark several times under
// different tunings. Collections of configurations are kept sorted by name and
// reject duplicates.
package algorithms

import (
	"fmt"
	"sort"
	"strings"
)

// Configuration is an algorithm together with the option values under which
// it is benchmarked.
type Configuration struct {
	// AlgorithmName identifies the algorithm, e.g. "SLSQP".
	AlgorithmName string `json:"algorithm_name"`
	// Name identifies this configuration of the algorithm. Two configurations
	// of the same algorithm must carry distinct names.
	Name string `json:"configuration_name"`
	// Options holds the algorithm options of the configuration.
	Options map[string]any `json:"algorithm_options"`
}

// NewConfiguration creates an algorithm configuration.
// When name is empty, a name is derived from the algorithm name and the
// options, e.g. "SLSQP_max_iter=9".
func NewConfiguration(algorithmName, name string, options map[string]any) *Configuration {
	if options == nil {
		options = make(map[string]any)
	}
	if name == "" {
		name = defaultConfigurationName(algorithmName, options)
	}
	return &Configuration{
		AlgorithmName: algorithmName,
		Name:          name,
		Options:       options,
	}
}

// defaultConfigurationName builds a configuration name out of the algorithm
// name and its options. Options are sorted by name so the result is stable.
func defaultConfigurationName(algorithmName string, options map[string]any) string {
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	builder.WriteString(algorithmName)
	for _, key := range keys {
		fmt.Fprintf(&builder, "_%s=%v", key, options[key])
	}
	return builder.String()
}

// Copy returns a deep copy of the configuration with extra options applied.
// Extra options override options of the same name.
func (c *Configuration) Copy(extraOptions map[string]any) *Configuration {
	options := make(map[string]any, len(c.Options)+len(extraOptions))
	for key, value := range c.Options {
		options[key] = value
	}
	for key, value := range extraOptions {
		options[key] = value
	}
	return &Configuration{
		AlgorithmName: c.AlgorithmName,
		Name:          c.Name,
		Options:       options,
	}
}
