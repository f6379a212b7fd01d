package models

import (
	"slices"

	"github.com/zeusync/assetpack/internal/core/asset"
)

// Entity is a handle plus at most one component of each kind.
type Entity struct {
	handle     asset.Handle
	components map[ComponentTag]Component
}

func NewEntity(h asset.Handle) *Entity {
	return &Entity{
		handle:     h,
		components: make(map[ComponentTag]Component),
	}
}

func (e *Entity) Handle() asset.Handle { return e.handle }

// Set attaches c, replacing any component of the same kind.
func (e *Entity) Set(c Component) *Entity {
	e.components[c.ComponentTag()] = c
	return e
}

func (e *Entity) Get(tag ComponentTag) (Component, bool) {
	c, ok := e.components[tag]
	return c, ok
}

func (e *Entity) Has(tag ComponentTag) bool {
	_, ok := e.components[tag]
	return ok
}

func (e *Entity) Remove(tag ComponentTag) bool {
	if _, ok := e.components[tag]; !ok {
		return false
	}
	delete(e.components, tag)
	return true
}

func (e *Entity) Len() int { return len(e.components) }

// Tags returns the attached component kinds in ascending tag order.
func (e *Entity) Tags() []ComponentTag {
	tags := make([]ComponentTag, 0, len(e.components))
	for t := range e.components {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// Components returns the attached components in ascending tag order.
func (e *Entity) Components() []Component {
	tags := e.Tags()
	out := make([]Component, len(tags))
	for i, t := range tags {
		out[i] = e.components[t]
	}
	return out
}

// GetComponent returns e's component of type T.
func GetComponent[T Component](e *Entity) (T, bool) {
	var zero T
	c, ok := e.components[zero.ComponentTag()]
	if !ok {
		return zero, false
	}
	v, ok := c.(T)
	return v, ok
}

// Name is the entity's Tag component name, or "" without one.
func (e *Entity) Name() string {
	if t, ok := GetComponent[*Tag](e); ok {
		return t.Name
	}
	return ""
}
