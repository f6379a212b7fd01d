package serialization

import (
	"fmt"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/pkg/encoding"
)

// ComponentSize returns the encoded size of c including its u16 tag, measured
// from an offset aligned to 8.
func ComponentSize(c models.Component) (int, error) {
	var s encoding.Sizer
	if err := sizeComponent(&s, c); err != nil {
		return 0, err
	}
	return s.Len(), nil
}

func unknownComponent(c models.Component) error {
	return asset.NewError(asset.CodeUnknownTag, fmt.Sprintf("component %T has no encoding", c), asset.ErrUnknownTag)
}

func sizeComponent(s *encoding.Sizer, c models.Component) error {
	encoding.SizeAligned[uint16](s)
	switch v := c.(type) {
	case *models.Tag:
		s.String(v.Name)
	case *models.Transform:
		sizeFloats(s, 9)
	case *models.SpriteRenderer:
		sizeFloats(s, 4)
		encoding.SizeAligned[uint64](s)
		sizeFloats(s, 1)
	case *models.CircleRenderer:
		sizeFloats(s, 6)
	case *models.Camera:
		encoding.SizeAligned[uint32](s)
		sizeFloats(s, 6)
		s.Bool()
		s.Bool()
	case *models.Rigidbody2D:
		encoding.SizeAligned[uint32](s)
		s.Bool()
	case *models.BoxCollider2D:
		sizeFloats(s, 8)
	case *models.CircleCollider2D:
		sizeFloats(s, 7)
	case *models.Text:
		s.String(v.Text)
		encoding.SizeAligned[uint64](s)
		sizeFloats(s, 6)
	case *models.ScriptInstance:
		encoding.SizeAligned[uint64](s)
	case *models.AudioSource:
		encoding.SizeAligned[uint64](s)
		sizeFloats(s, 2)
		s.Bool()
		s.Bool()
	default:
		return unknownComponent(c)
	}
	return nil
}

// writeComponent must mirror sizeComponent field for field.
func writeComponent(w *encoding.Writer, c models.Component) {
	encoding.WriteAligned(w, uint16(c.ComponentTag()))
	switch v := c.(type) {
	case *models.Tag:
		w.WriteString(v.Name)
	case *models.Transform:
		writeFloats(w, v.Translation[:]...)
		writeFloats(w, v.Rotation[:]...)
		writeFloats(w, v.Scale[:]...)
	case *models.SpriteRenderer:
		writeFloats(w, v.Color[:]...)
		encoding.WriteAligned(w, uint64(v.Texture))
		writeFloats(w, v.TilingFactor)
	case *models.CircleRenderer:
		writeFloats(w, v.Color[:]...)
		writeFloats(w, v.Thickness, v.Fade)
	case *models.Camera:
		encoding.WriteAligned(w, uint32(v.Projection))
		writeFloats(w, v.PerspectiveFOV, v.PerspectiveNear, v.PerspectiveFar,
			v.OrthographicSize, v.OrthographicNear, v.OrthographicFar)
		w.WriteBool(v.Primary)
		w.WriteBool(v.FixedAspectRatio)
	case *models.Rigidbody2D:
		encoding.WriteAligned(w, uint32(v.Type))
		w.WriteBool(v.FixedRotation)
	case *models.BoxCollider2D:
		writeFloats(w, v.Offset[:]...)
		writeFloats(w, v.Size[:]...)
		writeFloats(w, v.Density, v.Friction, v.Restitution, v.RestitutionThreshold)
	case *models.CircleCollider2D:
		writeFloats(w, v.Offset[:]...)
		writeFloats(w, v.Radius, v.Density, v.Friction, v.Restitution, v.RestitutionThreshold)
	case *models.Text:
		w.WriteString(v.Text)
		encoding.WriteAligned(w, uint64(v.Font))
		writeFloats(w, v.Color[:]...)
		writeFloats(w, v.Kerning, v.LineSpacing)
	case *models.ScriptInstance:
		encoding.WriteAligned(w, uint64(v.Script))
	case *models.AudioSource:
		encoding.WriteAligned(w, uint64(v.Audio))
		writeFloats(w, v.Volume, v.Pitch)
		w.WriteBool(v.Loop)
		w.WriteBool(v.PlayOnAwake)
	default:
		panic(unknownComponent(c))
	}
}

// readComponent decodes the payload that follows tag.
func readComponent(r *encoding.Reader, tag models.ComponentTag) (models.Component, error) {
	var d decoder
	d.r = r

	var c models.Component
	switch tag {
	case models.TagTag:
		c = &models.Tag{Name: d.string()}
	case models.TagTransform:
		v := &models.Transform{}
		d.floats(v.Translation[:])
		d.floats(v.Rotation[:])
		d.floats(v.Scale[:])
		c = v
	case models.TagSpriteRenderer:
		v := &models.SpriteRenderer{}
		d.floats(v.Color[:])
		v.Texture = d.handle()
		v.TilingFactor = d.float()
		c = v
	case models.TagCircleRenderer:
		v := &models.CircleRenderer{}
		d.floats(v.Color[:])
		v.Thickness = d.float()
		v.Fade = d.float()
		c = v
	case models.TagCamera:
		v := &models.Camera{}
		v.Projection = models.ProjectionType(d.u32())
		v.PerspectiveFOV = d.float()
		v.PerspectiveNear = d.float()
		v.PerspectiveFar = d.float()
		v.OrthographicSize = d.float()
		v.OrthographicNear = d.float()
		v.OrthographicFar = d.float()
		v.Primary = d.bool()
		v.FixedAspectRatio = d.bool()
		c = v
	case models.TagRigidbody2D:
		v := &models.Rigidbody2D{}
		v.Type = models.BodyType(d.u32())
		v.FixedRotation = d.bool()
		c = v
	case models.TagBoxCollider2D:
		v := &models.BoxCollider2D{}
		d.floats(v.Offset[:])
		d.floats(v.Size[:])
		v.Density = d.float()
		v.Friction = d.float()
		v.Restitution = d.float()
		v.RestitutionThreshold = d.float()
		c = v
	case models.TagCircleCollider2D:
		v := &models.CircleCollider2D{}
		d.floats(v.Offset[:])
		v.Radius = d.float()
		v.Density = d.float()
		v.Friction = d.float()
		v.Restitution = d.float()
		v.RestitutionThreshold = d.float()
		c = v
	case models.TagText:
		v := &models.Text{}
		v.Text = d.string()
		v.Font = d.handle()
		d.floats(v.Color[:])
		v.Kerning = d.float()
		v.LineSpacing = d.float()
		c = v
	case models.TagScript:
		c = &models.ScriptInstance{Script: d.handle()}
	case models.TagAudioSource:
		v := &models.AudioSource{}
		v.Audio = d.handle()
		v.Volume = d.float()
		v.Pitch = d.float()
		v.Loop = d.bool()
		v.PlayOnAwake = d.bool()
		c = v
	default:
		return nil, asset.NewError(asset.CodeUnknownTag, fmt.Sprintf("component tag %d at offset %d", uint16(tag), r.Offset()), asset.ErrUnknownTag)
	}
	if d.err != nil {
		return nil, asset.WrapError(d.err, "decode "+tag.String())
	}
	return c, nil
}

func sizeFloats(s *encoding.Sizer, n int) {
	for range n {
		encoding.SizeAligned[float32](s)
	}
}

func writeFloats(w *encoding.Writer, vs ...float32) {
	for _, v := range vs {
		encoding.WriteAligned(w, v)
	}
}
