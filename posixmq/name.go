package posixmq

import (
	"fmt"
	"strings"
)

// MaxNameLength is the max length of a queue name, not counting the leading
// "/" (NAME_MAX on linux).
const MaxNameLength = 255

// canonicalName returns the name with exactly one leading "/".
//
// Names are accepted both with and without the leading "/",
// but can't be empty or contain any other "/" or NUL.
func canonicalName(name string) (string, error) {
	trimmed := strings.TrimPrefix(name, "/")
	if trimmed == "" ||
		len(trimmed) > MaxNameLength ||
		strings.ContainsAny(trimmed, "/\x00") ||
		trimmed == "." ||
		trimmed == ".." {
		return "", ErrInvalidName
	}
	return "/" + trimmed, nil
}

// CanonicalName returns the name with exactly one leading "/",
// or an error wrapping ErrInvalidName.
func CanonicalName(name string) (string, error) {
	canonical, err := canonicalName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, name)
	}
	return canonical, nil
}
