package domain

import "sort"

// FileSet is a set of filenames, used as the processed-file ledger.
type FileSet map[string]struct{}

// NewFileSet builds a set from the given names, ignoring empty strings.
func NewFileSet(names ...string) FileSet {
	s := make(FileSet, len(names))
	s.Add(names...)
	return s
}

// Add inserts names into the set.
func (s FileSet) Add(names ...string) {
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
}

// Has reports whether name is in the set.
func (s FileSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union returns a new set holding the members of both sets.
func (s FileSet) Union(other FileSet) FileSet {
	out := make(FileSet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

// Difference returns the members of s that are not in other.
func (s FileSet) Difference(other FileSet) FileSet {
	out := make(FileSet)
	for n := range s {
		if !other.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s FileSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
