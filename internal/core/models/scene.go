package models

import (
	"slices"

	"github.com/zeusync/assetpack/internal/core/asset"
)

// Scene is a named set of entities. StepFrames counts physics steps the
// scene should advance on start.
type Scene struct {
	ID         asset.Handle
	Name       string
	StepFrames uint64
	entities   map[asset.Handle]*Entity
}

func NewScene(h asset.Handle, name string) *Scene {
	return &Scene{
		ID:       h,
		Name:     name,
		entities: make(map[asset.Handle]*Entity),
	}
}

func (s *Scene) Handle() asset.Handle { return s.ID }
func (*Scene) Type() asset.Type       { return asset.TypeScene }
func (*Scene) asset()                 {}

// CreateEntity adds a new entity with a fresh handle and a Tag and Transform.
func (s *Scene) CreateEntity(name string) *Entity {
	e := NewEntity(asset.NewHandle())
	e.Set(&Tag{Name: name}).Set(NewTransform())
	s.entities[e.Handle()] = e
	return e
}

// AddEntity inserts e, replacing any entity with the same handle.
func (s *Scene) AddEntity(e *Entity) {
	s.entities[e.Handle()] = e
}

func (s *Scene) Entity(h asset.Handle) (*Entity, bool) {
	e, ok := s.entities[h]
	return e, ok
}

func (s *Scene) RemoveEntity(h asset.Handle) bool {
	if _, ok := s.entities[h]; !ok {
		return false
	}
	delete(s.entities, h)
	return true
}

func (s *Scene) EntityCount() int { return len(s.entities) }

// Entities returns the scene's entities ordered by handle.
func (s *Scene) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entity) int {
		switch {
		case a.handle < b.handle:
			return -1
		case a.handle > b.handle:
			return 1
		default:
			return 0
		}
	})
	return out
}

// References returns every asset handle a component in the scene points at,
// ascending and without duplicates.
func (s *Scene) References() []asset.Handle {
	seen := make(map[asset.Handle]struct{})
	for _, e := range s.entities {
		for _, c := range e.components {
			if h, ok := References(c); ok {
				seen[h] = struct{}{}
			}
		}
	}
	out := make([]asset.Handle, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}
