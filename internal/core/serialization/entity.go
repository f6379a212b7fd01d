package serialization

import (
	"fmt"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/pkg/encoding"
)

// EncodeEntity writes e's components as a tag stream in ascending tag order.
// The stream has no count; its end is the end of the buffer.
func EncodeEntity(e *models.Entity) (encoding.Buffer, error) {
	components := e.Components()
	return encode(
		func(s *encoding.Sizer) error {
			for _, c := range components {
				if err := sizeComponent(s, c); err != nil {
					return err
				}
			}
			return nil
		},
		func(w *encoding.Writer) {
			for _, c := range components {
				writeComponent(w, c)
			}
		},
		fmt.Sprintf("encode entity %s", e.Handle()),
	)
}

// DecodeEntity reads a tag stream until buf is exhausted. A tag seen twice or
// a tag outside the component set fails the whole entity.
func DecodeEntity(h asset.Handle, buf encoding.Buffer) (*models.Entity, error) {
	e := models.NewEntity(h)
	r := encoding.NewReader(buf)
	for !r.Done() {
		raw, err := encoding.ReadAligned[uint16](r)
		if err != nil {
			return nil, asset.WrapError(err, fmt.Sprintf("entity %s: component tag", h))
		}
		tag := models.ComponentTag(raw)
		if e.Has(tag) {
			return nil, asset.NewError(asset.CodeParse, fmt.Sprintf("entity %s: component %s appears twice", h, tag), nil)
		}
		c, err := readComponent(r, tag)
		if err != nil {
			return nil, asset.WrapError(err, fmt.Sprintf("entity %s", h))
		}
		e.Set(c)
	}
	return e, nil
}

// encode runs the two-pass protocol when the size pass can reject its input.
func encode(size func(*encoding.Sizer) error, write func(*encoding.Writer), op string) (encoding.Buffer, error) {
	var measured encoding.Sizer
	if err := size(&measured); err != nil {
		return encoding.Buffer{}, asset.WrapError(err, op)
	}
	buf, err := encoding.Encode(func(s *encoding.Sizer) { *s = measured }, write)
	if err != nil {
		return encoding.Buffer{}, asset.WrapError(err, op)
	}
	return buf, nil
}
