// Package filter narrows in-memory job and application lists by a category key
// and a free-text query. It never reorders or mutates its input.
package filter

import (
	"sort"
	"strings"
)

// KeyAll is the identity key. Unknown keys behave like it.
const KeyAll = "all"

// Predicate reports whether a record belongs to a category
type Predicate[T any] func(record *T) bool

// Table maps filter keys to predicates and names the fields searched by a query
type Table[T any] struct {
	predicates map[string]Predicate[T]
	fields     func(record *T) []string
}

// NewTable creates a table. fields returns the searchable text of a record.
func NewTable[T any](predicates map[string]Predicate[T], fields func(record *T) []string) *Table[T] {
	normalized := make(map[string]Predicate[T], len(predicates))
	for key, p := range predicates {
		normalized[normalizeKey(key)] = p
	}
	return &Table[T]{predicates: normalized, fields: fields}
}

// Apply returns the records passing both the key predicate and the query.
// The result is a new slice in input order; an empty query matches everything.
func (t *Table[T]) Apply(records []T, key, query string) []T {
	predicate := t.Predicate(key)
	needle := strings.ToLower(query)

	out := make([]T, 0, len(records))
	for i := range records {
		record := &records[i]
		if predicate != nil && !predicate(record) {
			continue
		}
		if needle != "" && !t.matches(record, needle) {
			continue
		}
		out = append(out, records[i])
	}
	return out
}

// Predicate returns the predicate for key, or nil for the identity filter
func (t *Table[T]) Predicate(key string) Predicate[T] {
	key = normalizeKey(key)
	if key == KeyAll {
		return nil
	}
	return t.predicates[key]
}

// Keys lists the known filter keys, "all" first and the rest sorted
func (t *Table[T]) Keys() []string {
	keys := make([]string, 0, len(t.predicates)+1)
	for key := range t.predicates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return append([]string{KeyAll}, keys...)
}

// Known reports whether key selects a predicate or is "all"
func (t *Table[T]) Known(key string) bool {
	key = normalizeKey(key)
	if key == KeyAll {
		return true
	}
	_, ok := t.predicates[key]
	return ok
}

func (t *Table[T]) matches(record *T, needle string) bool {
	for _, field := range t.fields(record) {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return KeyAll
	}
	return key
}
