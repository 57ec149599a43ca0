// Package fields holds the ordered name/value registries an upload carries
// next to its form: request headers and auxiliary form data.
package fields

import (
	"errors"
	"fmt"
	"net/textproto"
	"sync"
)

// ErrInvalidName is returned when a field is set with an empty name.
var ErrInvalidName = errors.New("formship: invalid field name")

// Entry is one name/value pair in registration order.
type Entry struct {
	Name  string
	Value string
}

// Registry is an ordered string map. Setting an existing name keeps its
// original position and replaces the value. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	canonical bool
	order     []string
	values    map[string]Entry
}

// New creates a registry with case-sensitive names, used for form data.
func New() *Registry {
	return &Registry{values: make(map[string]Entry)}
}

// NewHeaders creates a registry whose names match case-insensitively, the
// way HTTP header names do. The name as first set is the one reported.
func NewHeaders() *Registry {
	r := New()
	r.canonical = true
	return r
}

// Set stores value under name. Values are coerced to strings with fmt.Sprint;
// a nil value becomes the empty string.
func (r *Registry) Set(name string, value any) error {
	if name == "" {
		return ErrInvalidName
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(name)
	if prev, ok := r.values[key]; ok {
		prev.Value = stringify(value)
		r.values[key] = prev
		return nil
	}
	r.order = append(r.order, key)
	r.values[key] = Entry{Name: name, Value: stringify(value)}
	return nil
}

// Merge sets every pair of m. Invalid names are skipped and reported together.
// Map iteration order is not stable, so pairs new to the registry are added
// in sorted name order.
func (r *Registry) Merge(m map[string]string) error {
	var errs []error
	for _, name := range sortedKeys(m) {
		if err := r.Set(name, m[name]); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Get returns the value stored under name.
func (r *Registry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.values[r.key(name)]
	return e.Value, ok
}

// Has reports whether name is set.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Delete removes name.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(name)
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Entries returns a snapshot of all pairs in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.values[k])
	}
	return out
}

// Map returns a snapshot keyed by the reported names.
func (r *Registry) Map() map[string]string {
	entries := r.Entries()
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Name] = e.Value
	}
	return m
}

func (r *Registry) key(name string) string {
	if r.canonical {
		return textproto.CanonicalMIMEHeaderKey(name)
	}
	return name
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
