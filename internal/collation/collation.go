// Package collation provides the class-name comparison used everywhere class
// names are ordered. Comparison is locale-aware, case-insensitive and
// numeric-aware, so "Class 2" sorts before "Class 10".
package collation

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	mu  sync.Mutex
	col = collate.New(language.English, collate.Numeric, collate.IgnoreCase)
)

// Compare orders two class names, returning -1, 0 or 1.
func Compare(a, b string) int {
	mu.Lock()
	defer mu.Unlock()
	return col.CompareString(a, b)
}

// Less reports whether a orders before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}
