package serialization

import (
	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/pkg/encoding"
)

// decoder wraps a Reader and keeps the first error, so a payload can be read
// field by field and checked once at the end.
type decoder struct {
	r   *encoding.Reader
	err error
}

func read[T encoding.Scalar](d *decoder) T {
	var zero T
	if d.err != nil {
		return zero
	}
	v, err := encoding.ReadAligned[T](d.r)
	if err != nil {
		d.err = err
		return zero
	}
	return v
}

func (d *decoder) u16() uint16          { return read[uint16](d) }
func (d *decoder) u32() uint32          { return read[uint32](d) }
func (d *decoder) float() float32       { return read[float32](d) }
func (d *decoder) handle() asset.Handle { return asset.Handle(read[uint64](d)) }

func (d *decoder) floats(dst []float32) {
	for i := range dst {
		dst[i] = d.float()
	}
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, err := d.r.ReadBool()
	d.err = err
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, err := d.r.ReadString()
	d.err = err
	return v
}

func (d *decoder) bytes() []byte {
	if d.err != nil {
		return nil
	}
	v, err := d.r.ReadBytes()
	d.err = err
	return v
}
