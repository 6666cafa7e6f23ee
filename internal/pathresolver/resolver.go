// Package pathresolver expands home-directory and environment-variable
// references in file paths. It performs no I/O.
package pathresolver

import (
	"os"
	"regexp"
	"strings"
)

var envRef = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// Resolve expands a leading "~" to the current user's home directory and
// substitutes "$VAR" / "${VAR}" references with their environment values
// (empty string if unset). Paths with no such markers are returned
// unchanged.
func Resolve(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}

	return envRef.ReplaceAllStringFunc(path, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		name = strings.TrimPrefix(name, "$")
		return os.Getenv(name)
	})
}
