// Package id generates short prefixed identifiers for transient runtime objects.
//
// Catalog rows use integer keys owned by SQLite; the identifiers produced here
// name things that never hit the database, such as search sessions, indexing
// jobs and SSE clients.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the identifier kinds in use.
const (
	PrefixSearch = "srch"
	PrefixJob    = "job"
	PrefixClient = "sse"
)

// alphabet omits look-alike characters so ids can be read back from logs.
const alphabet = "23456789abcdefghjkmnpqrstuvwxyz"

const length = 14

// Generate creates an id of the form prefix-xxxxxxxxxxxxxx.
func Generate(prefix string) (string, error) {
	raw, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + raw, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// HasPrefix reports whether v was generated with the given prefix.
func HasPrefix(v, prefix string) bool {
	rest, ok := strings.CutPrefix(v, prefix+"-")
	return ok && len(rest) == length
}
