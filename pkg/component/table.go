package component

import (
	"slices"
	"sort"
)

// Table is a keyed option map where the child's own entries win and missing
// keys fall back to the parent table instead of being copied.
type Table[V any] struct {
	parent  *Table[V]
	entries map[string]V
}

// NewTable creates a table with own entries and an optional parent.
func NewTable[V any](parent *Table[V], entries map[string]V) *Table[V] {
	if entries == nil {
		entries = map[string]V{}
	}
	return &Table[V]{parent: parent, entries: entries}
}

// Lookup finds key in the table or its ancestors.
func (t *Table[V]) Lookup(key string) (V, bool) {
	for cur := t; cur != nil; cur = cur.parent {
		if v, ok := cur.entries[key]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether key resolves.
func (t *Table[V]) Has(key string) bool {
	_, ok := t.Lookup(key)
	return ok
}

// Own reports whether key is defined on this table itself.
func (t *Table[V]) Own(key string) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[key]
	return ok
}

// Set defines key on this table.
func (t *Table[V]) Set(key string, v V) {
	t.entries[key] = v
}

// Parent returns the table this one delegates to.
func (t *Table[V]) Parent() *Table[V] {
	return t.parent
}

// Keys returns every resolvable key, sorted.
func (t *Table[V]) Keys() []string {
	var keys []string
	for cur := t; cur != nil; cur = cur.parent {
		for k := range cur.entries {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return slices.Compact(keys)
}

// Len returns the number of resolvable keys.
func (t *Table[V]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Keys())
}

// Assets is an asset bucket (components, directives or filters). Lookups fall
// back to the parent bucket, so assets registered globally after a component
// was defined are still visible to it.
type Assets = Table[any]

// NewAssets creates an asset bucket.
func NewAssets(parent *Assets) *Assets {
	return NewTable[any](parent, nil)
}
