package data

import (
	"strings"

	"golang.org/x/text/cases"
)

// foldID normalizes a template id for lookup, so "Sol", " sol " and "SOL"
// name the same entry.
func foldID(id string) string {
	return cases.Fold().String(strings.TrimSpace(id))
}
