package serialization

import (
	"fmt"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/pkg/encoding"
)

// AssetSize returns the encoded size of a, including its leading u16 type tag.
// Scenes are framed by the pack and have no standalone encoding.
func AssetSize(a models.Asset) (int, error) {
	var s encoding.Sizer
	if err := sizeAsset(&s, a); err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// EncodeAsset serializes a non-scene asset into a freshly allocated buffer.
func EncodeAsset(a models.Asset) (encoding.Buffer, error) {
	return encode(
		func(s *encoding.Sizer) error { return sizeAsset(s, a) },
		func(w *encoding.Writer) { writeAsset(w, a) },
		fmt.Sprintf("encode %s %s", a.Type(), a.Handle()),
	)
}

func unencodableAsset(a models.Asset) error {
	return asset.NewError(asset.CodeUnknownTag, fmt.Sprintf("asset %T has no standalone encoding", a), asset.ErrUnknownTag)
}

func sizeAsset(s *encoding.Sizer, a models.Asset) error {
	encoding.SizeAligned[uint16](s)
	switch v := a.(type) {
	case *models.Texture:
		encoding.SizeAligned[uint32](s)
		encoding.SizeAligned[uint32](s)
		encoding.SizeAligned[uint16](s)
		encoding.SizeAligned[uint16](s)
		s.Bytes(v.Pixels)
	case *models.Font:
		s.String(v.Family)
		s.Bytes(v.Data)
	case *models.Audio:
		encoding.SizeAligned[uint32](s)
		encoding.SizeAligned[uint16](s)
		encoding.SizeAligned[uint16](s)
		s.Bytes(v.Data)
	case *models.Script:
		s.String(v.ClassName)
		s.String(v.Source)
	default:
		return unencodableAsset(a)
	}
	return nil
}

func writeAsset(w *encoding.Writer, a models.Asset) {
	encoding.WriteAligned(w, uint16(a.Type()))
	switch v := a.(type) {
	case *models.Texture:
		encoding.WriteAligned(w, v.Width)
		encoding.WriteAligned(w, v.Height)
		encoding.WriteAligned(w, uint16(v.Format))
		encoding.WriteAligned(w, uint16(v.Filter))
		w.WriteBytes(v.Pixels)
	case *models.Font:
		w.WriteString(v.Family)
		w.WriteBytes(v.Data)
	case *models.Audio:
		encoding.WriteAligned(w, v.SampleRate)
		encoding.WriteAligned(w, v.Channels)
		encoding.WriteAligned(w, v.BitsPerSample)
		w.WriteBytes(v.Data)
	case *models.Script:
		w.WriteString(v.ClassName)
		w.WriteString(v.Source)
	default:
		panic(unencodableAsset(a))
	}
}

// DecodeAsset reads an asset buffer produced by EncodeAsset. The buffer's
// type tag selects the kind; the whole buffer must be consumed.
func DecodeAsset(h asset.Handle, buf encoding.Buffer) (models.Asset, error) {
	d := decoder{r: encoding.NewReader(buf)}
	typ := asset.Type(d.u16())
	if d.err != nil {
		return nil, asset.WrapError(d.err, fmt.Sprintf("asset %s: type tag", h))
	}

	var a models.Asset
	switch typ {
	case asset.TypeTexture2D:
		v := &models.Texture{ID: h}
		v.Width = d.u32()
		v.Height = d.u32()
		v.Format = models.PixelFormat(d.u16())
		v.Filter = models.Filter(d.u16())
		v.Pixels = d.bytes()
		if d.err == nil {
			d.err = checkTexture(v)
		}
		a = v
	case asset.TypeFont:
		a = &models.Font{ID: h, Family: d.string(), Data: d.bytes()}
	case asset.TypeAudio:
		v := &models.Audio{ID: h}
		v.SampleRate = d.u32()
		v.Channels = d.u16()
		v.BitsPerSample = d.u16()
		v.Data = d.bytes()
		a = v
	case asset.TypeScript:
		a = &models.Script{ID: h, ClassName: d.string(), Source: d.string()}
	default:
		return nil, asset.NewError(asset.CodeUnknownTag, fmt.Sprintf("asset %s has type tag %d", h, uint16(typ)), asset.ErrUnknownTag)
	}

	if d.err != nil {
		return nil, asset.WrapError(d.err, fmt.Sprintf("decode %s %s", typ, h))
	}
	if !d.r.Done() {
		return nil, asset.NewError(asset.CodeParse, fmt.Sprintf("%s %s: %d trailing bytes", typ, h, d.r.Remaining()), nil)
	}
	return a, nil
}

func checkTexture(t *models.Texture) error {
	bpp := t.Format.BytesPerPixel()
	if bpp == 0 {
		return asset.NewError(asset.CodeParse, fmt.Sprintf("texture %s has pixel format %d", t.ID, t.Format), nil)
	}
	want := uint64(t.Width) * uint64(t.Height) * uint64(bpp)
	if uint64(len(t.Pixels)) != want {
		return asset.NewError(asset.CodeParse, fmt.Sprintf("texture %s is %dx%d but holds %d pixel bytes", t.ID, t.Width, t.Height, len(t.Pixels)), nil)
	}
	return nil
}
