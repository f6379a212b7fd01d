package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/assetpack/internal/core/asset"
)

func TestScene_CreateEntityDefaults(t *testing.T) {
	s := NewScene(1, "Level")
	e := s.CreateEntity("Player")

	assert.Equal(t, "Player", e.Name())
	tr, ok := GetComponent[*Transform](e)
	require.True(t, ok)
	assert.Equal(t, One3, tr.Scale)
	assert.Equal(t, []ComponentTag{TagTag, TagTransform}, e.Tags())

	got, ok := s.Entity(e.Handle())
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestScene_References(t *testing.T) {
	s := NewScene(1, "Level")
	s.CreateEntity("a").Set(&SpriteRenderer{Texture: 42, Color: White, TilingFactor: 1})
	s.CreateEntity("b").Set(&SpriteRenderer{Texture: 42}).Set(&Text{Font: 7})
	s.CreateEntity("c").Set(&ScriptInstance{Script: 99}).Set(&AudioSource{Audio: 13})
	s.CreateEntity("d").Set(&SpriteRenderer{})

	assert.Equal(t, []asset.Handle{7, 13, 42, 99}, s.References())
}

func TestEntity_SetReplacesSameKind(t *testing.T) {
	e := NewEntity(5)
	e.Set(&Tag{Name: "first"}).Set(&Tag{Name: "second"})
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, "second", e.Name())

	assert.True(t, e.Remove(TagTag))
	assert.False(t, e.Has(TagTag))
	assert.Equal(t, "", e.Name())
}

func TestScene_EntitiesOrdered(t *testing.T) {
	s := NewScene(1, "Level")
	for _, h := range []asset.Handle{30, 10, 20} {
		s.AddEntity(NewEntity(h))
	}
	ents := s.Entities()
	require.Len(t, ents, 3)
	assert.Equal(t, asset.Handle(10), ents[0].Handle())
	assert.Equal(t, asset.Handle(30), ents[2].Handle())
	assert.True(t, s.RemoveEntity(20))
	assert.Equal(t, 2, s.EntityCount())
}
