package utils

import "strings"

// JoinSubstrings replaces every run of whitespace in a name with a single
// underscore. History files and report sources are laid out in directories
// named after algorithm configurations and problems, which may contain spaces.
func JoinSubstrings(s string) string {
	return strings.Join(strings.Fields(s), "_")
}
