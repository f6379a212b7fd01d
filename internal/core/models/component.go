package models

import (
	"fmt"

	"github.com/zeusync/assetpack/internal/core/asset"
)

// ComponentTag identifies a component kind in an entity's tag stream.
type ComponentTag uint16

const (
	TagNone ComponentTag = iota
	TagTag
	TagTransform
	TagSpriteRenderer
	TagCircleRenderer
	TagCamera
	TagRigidbody2D
	TagBoxCollider2D
	TagCircleCollider2D
	TagText
	TagScript
	TagAudioSource
)

// ComponentTags lists every component kind in encode order.
var ComponentTags = []ComponentTag{
	TagTag, TagTransform, TagSpriteRenderer, TagCircleRenderer, TagCamera,
	TagRigidbody2D, TagBoxCollider2D, TagCircleCollider2D, TagText, TagScript, TagAudioSource,
}

func (t ComponentTag) String() string {
	switch t {
	case TagTag:
		return "Tag"
	case TagTransform:
		return "Transform"
	case TagSpriteRenderer:
		return "SpriteRenderer"
	case TagCircleRenderer:
		return "CircleRenderer"
	case TagCamera:
		return "Camera"
	case TagRigidbody2D:
		return "Rigidbody2D"
	case TagBoxCollider2D:
		return "BoxCollider2D"
	case TagCircleCollider2D:
		return "CircleCollider2D"
	case TagText:
		return "Text"
	case TagScript:
		return "Script"
	case TagAudioSource:
		return "AudioSource"
	default:
		return fmt.Sprintf("ComponentTag(%d)", uint16(t))
	}
}

// Component is the closed set of data attached to entities. The unexported
// method keeps the set closed to this package.
type Component interface {
	ComponentTag() ComponentTag
	component()
}

type Tag struct {
	Name string `yaml:"Name"`
}

type Transform struct {
	Translation Vec3 `yaml:"Translation"`
	Rotation    Vec3 `yaml:"Rotation"`
	Scale       Vec3 `yaml:"Scale"`
}

func NewTransform() *Transform {
	return &Transform{Scale: One3}
}

type SpriteRenderer struct {
	Color        Vec4         `yaml:"Color"`
	Texture      asset.Handle `yaml:"Texture"`
	TilingFactor float32      `yaml:"TilingFactor"`
}

type CircleRenderer struct {
	Color     Vec4    `yaml:"Color"`
	Thickness float32 `yaml:"Thickness"`
	Fade      float32 `yaml:"Fade"`
}

type ProjectionType uint32

const (
	ProjectionPerspective ProjectionType = iota
	ProjectionOrthographic
)

type Camera struct {
	Projection       ProjectionType `yaml:"Projection"`
	PerspectiveFOV   float32        `yaml:"PerspectiveFOV"`
	PerspectiveNear  float32        `yaml:"PerspectiveNear"`
	PerspectiveFar   float32        `yaml:"PerspectiveFar"`
	OrthographicSize float32        `yaml:"OrthographicSize"`
	OrthographicNear float32        `yaml:"OrthographicNear"`
	OrthographicFar  float32        `yaml:"OrthographicFar"`
	Primary          bool           `yaml:"Primary"`
	FixedAspectRatio bool           `yaml:"FixedAspectRatio"`
}

type BodyType uint32

const (
	BodyStatic BodyType = iota
	BodyDynamic
	BodyKinematic
)

type Rigidbody2D struct {
	Type          BodyType `yaml:"Type"`
	FixedRotation bool     `yaml:"FixedRotation"`
}

type BoxCollider2D struct {
	Offset               Vec2    `yaml:"Offset"`
	Size                 Vec2    `yaml:"Size"`
	Density              float32 `yaml:"Density"`
	Friction             float32 `yaml:"Friction"`
	Restitution          float32 `yaml:"Restitution"`
	RestitutionThreshold float32 `yaml:"RestitutionThreshold"`
}

type CircleCollider2D struct {
	Offset               Vec2    `yaml:"Offset"`
	Radius               float32 `yaml:"Radius"`
	Density              float32 `yaml:"Density"`
	Friction             float32 `yaml:"Friction"`
	Restitution          float32 `yaml:"Restitution"`
	RestitutionThreshold float32 `yaml:"RestitutionThreshold"`
}

type Text struct {
	Text        string       `yaml:"Text"`
	Font        asset.Handle `yaml:"Font"`
	Color       Vec4         `yaml:"Color"`
	Kerning     float32      `yaml:"Kerning"`
	LineSpacing float32      `yaml:"LineSpacing"`
}

// ScriptInstance binds an entity to a script asset's class.
type ScriptInstance struct {
	Script asset.Handle `yaml:"Script"`
}

type AudioSource struct {
	Audio       asset.Handle `yaml:"Audio"`
	Volume      float32      `yaml:"Volume"`
	Pitch       float32      `yaml:"Pitch"`
	Loop        bool         `yaml:"Loop"`
	PlayOnAwake bool         `yaml:"PlayOnAwake"`
}

func (*Tag) ComponentTag() ComponentTag              { return TagTag }
func (*Transform) ComponentTag() ComponentTag        { return TagTransform }
func (*SpriteRenderer) ComponentTag() ComponentTag   { return TagSpriteRenderer }
func (*CircleRenderer) ComponentTag() ComponentTag   { return TagCircleRenderer }
func (*Camera) ComponentTag() ComponentTag           { return TagCamera }
func (*Rigidbody2D) ComponentTag() ComponentTag      { return TagRigidbody2D }
func (*BoxCollider2D) ComponentTag() ComponentTag    { return TagBoxCollider2D }
func (*CircleCollider2D) ComponentTag() ComponentTag { return TagCircleCollider2D }
func (*Text) ComponentTag() ComponentTag             { return TagText }
func (*ScriptInstance) ComponentTag() ComponentTag   { return TagScript }
func (*AudioSource) ComponentTag() ComponentTag      { return TagAudioSource }

func (*Tag) component()              {}
func (*Transform) component()        {}
func (*SpriteRenderer) component()   {}
func (*CircleRenderer) component()   {}
func (*Camera) component()           {}
func (*Rigidbody2D) component()      {}
func (*BoxCollider2D) component()    {}
func (*CircleCollider2D) component() {}
func (*Text) component()             {}
func (*ScriptInstance) component()   {}
func (*AudioSource) component()      {}

// References returns the asset handle a component points at, if any.
func References(c Component) (asset.Handle, bool) {
	var h asset.Handle
	switch v := c.(type) {
	case *SpriteRenderer:
		h = v.Texture
	case *Text:
		h = v.Font
	case *ScriptInstance:
		h = v.Script
	case *AudioSource:
		h = v.Audio
	}
	return h, !h.IsNull()
}
