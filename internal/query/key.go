package query

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Key identifies a cache entry: an operation name followed by its
// parameters, e.g. Key{"movies", "search", "batman"}.
// Keys with different parameters never collide.
type Key []any

// String returns the canonical JSON array form used for storage
func (k Key) String() string {
	b, err := json.Marshal([]any(k))
	if err != nil {
		return fmt.Sprintf("%v", []any(k))
	}
	return string(b)
}

// Operation returns the element after the root, used as the metrics label
func (k Key) Operation() string {
	if len(k) < 2 {
		return "unknown"
	}
	return fmt.Sprint(k[1])
}

// childPrefix returns the string every descendant key of k starts with
func (k Key) childPrefix() string {
	return strings.TrimSuffix(k.String(), "]") + ","
}

// HasPrefix reports whether k equals prefix or descends from it
func (k Key) HasPrefix(prefix Key) bool {
	s := k.String()
	return s == prefix.String() || strings.HasPrefix(s, prefix.childPrefix())
}
