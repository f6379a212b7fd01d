package asset

import (
	"path"
	"slices"
	"strings"
)

// Store maps handles to metadata. It is pure data: no I/O, no locking. A
// Store is owned by one goroutine.
type Store struct {
	entries map[Handle]Metadata
}

func NewStore() *Store {
	return &Store{entries: make(map[Handle]Metadata)}
}

func (s *Store) Exists(h Handle) bool {
	_, ok := s.entries[h]
	return ok
}

func (s *Store) Get(h Handle) (Metadata, error) {
	m, ok := s.entries[h]
	if !ok {
		return Metadata{}, NewError(CodeNotFound, "metadata for handle "+h.String(), ErrNotFound).
			WithContext("handle", h)
	}
	return m, nil
}

// Add inserts m. It fails, leaving the store unchanged, when the handle is
// null or already present.
func (s *Store) Add(m Metadata) error {
	if m.Handle.IsNull() {
		return NewError(CodeNullHandle, "cannot register metadata", ErrNullHandle)
	}
	if _, ok := s.entries[m.Handle]; ok {
		return NewError(CodeDuplicate, "cannot register metadata for handle "+m.Handle.String(), ErrDuplicateHandle).
			WithContext("handle", m.Handle)
	}
	m.FilePath = NormalizePath(m.FilePath)
	s.entries[m.Handle] = m
	return nil
}

func (s *Store) Remove(h Handle) bool {
	if _, ok := s.entries[h]; !ok {
		return false
	}
	delete(s.entries, h)
	return true
}

// SetStatus is the only mutation allowed on an existing entry.
func (s *Store) SetStatus(h Handle, status Status) error {
	m, ok := s.entries[h]
	if !ok {
		return NewError(CodeNotFound, "metadata for handle "+h.String(), ErrNotFound)
	}
	m.Status = status
	s.entries[h] = m
	return nil
}

func (s *Store) Len() int { return len(s.entries) }

// Clear drops every entry.
func (s *Store) Clear() {
	clear(s.entries)
}

// All returns every entry ordered by handle.
func (s *Store) All() []Metadata {
	out := make([]Metadata, 0, len(s.entries))
	for _, m := range s.entries {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Metadata) int {
		switch {
		case a.Handle < b.Handle:
			return -1
		case a.Handle > b.Handle:
			return 1
		default:
			return 0
		}
	})
	return out
}

// OfType returns the entries of type t ordered by handle.
func (s *Store) OfType(t Type) []Metadata {
	all := s.All()
	out := all[:0]
	for _, m := range all {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// FindByPath does a linear scan for the entry whose FilePath matches p.
func (s *Store) FindByPath(p string) (Metadata, bool) {
	p = NormalizePath(p)
	for _, m := range s.entries {
		if m.FilePath == p && p != "" {
			return m, true
		}
	}
	return Metadata{}, false
}

// NormalizePath converts p to the forward-slash relative form stored in metadata.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}
