package models

import "github.com/zeusync/assetpack/internal/core/asset"

// Asset is the closed sum of loadable asset kinds: *Scene, *Texture, *Font,
// *Audio and *Script.
type Asset interface {
	Handle() asset.Handle
	Type() asset.Type
	asset()
}

type PixelFormat uint16

const (
	FormatNone PixelFormat = iota
	FormatRGBA8
	FormatRGB8
)

// BytesPerPixel returns 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8:
		return 4
	case FormatRGB8:
		return 3
	default:
		return 0
	}
}

type Filter uint16

const (
	FilterLinear Filter = iota
	FilterNearest
)

// Texture is a decoded image in tightly packed rows.
type Texture struct {
	ID     asset.Handle
	Width  uint32
	Height uint32
	Format PixelFormat
	Filter Filter
	Pixels []byte
}

// Font carries the raw font file; atlas generation belongs to the renderer.
type Font struct {
	ID     asset.Handle
	Family string
	Data   []byte
}

// Audio carries PCM (or encoded) sample data for the playback engine.
type Audio struct {
	ID            asset.Handle
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
	Data          []byte
}

// Script is source text for the scripting runtime.
type Script struct {
	ID        asset.Handle
	ClassName string
	Source    string
}

func (t *Texture) Handle() asset.Handle { return t.ID }
func (f *Font) Handle() asset.Handle    { return f.ID }
func (a *Audio) Handle() asset.Handle   { return a.ID }
func (s *Script) Handle() asset.Handle  { return s.ID }

func (*Texture) Type() asset.Type { return asset.TypeTexture2D }
func (*Font) Type() asset.Type    { return asset.TypeFont }
func (*Audio) Type() asset.Type   { return asset.TypeAudio }
func (*Script) Type() asset.Type  { return asset.TypeScript }

func (*Texture) asset() {}
func (*Font) asset()    {}
func (*Audio) asset()   {}
func (*Script) asset()  {}
