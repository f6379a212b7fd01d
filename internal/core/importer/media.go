package importer

import (
	"bytes"
	"cmp"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"

	"github.com/go-audio/wav"
	"golang.org/x/image/font/sfnt"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
)

// decodeTexture converts a PNG or JPEG into tightly packed rows, top row
// first. Opaque images become RGB8; everything else RGBA8 with straight alpha.
func decodeTexture(h asset.Handle, data []byte) (*models.Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, parseError("decode image", err)
	}
	b := img.Bounds()
	t := &models.Texture{
		ID:     h,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Format: models.FormatRGBA8,
		Filter: models.FilterLinear,
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		t.Format = models.FormatRGB8
	}

	bpp := t.Format.BytesPerPixel()
	t.Pixels = make([]byte, 0, b.Dx()*b.Dy()*bpp)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			t.Pixels = append(t.Pixels, c.R, c.G, c.B)
			if bpp == 4 {
				t.Pixels = append(t.Pixels, c.A)
			}
		}
	}
	return t, nil
}

// decodeFont validates a TrueType or OpenType file, or the first face of a
// collection, and keeps the file as is. Family comes from the font's name
// table, falling back to the file's base name.
func decodeFont(h asset.Handle, fallback string, data []byte) (*models.Font, error) {
	f, err := parseFont(data)
	if err != nil {
		return nil, parseError("parse font", err)
	}
	family, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil || family == "" {
		family = fallback
	}
	return &models.Font{ID: h, Family: family, Data: data}, nil
}

func parseFont(data []byte) (*sfnt.Font, error) {
	if !bytes.HasPrefix(data, []byte("ttcf")) {
		return sfnt.Parse(data)
	}
	c, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	return c.Font(0)
}

// decodeAudio extracts PCM samples from WAV files. Other formats are kept
// encoded, with zero format fields, for the playback engine to decode.
func decodeAudio(h asset.Handle, file string, data []byte) (*models.Audio, error) {
	if strings.ToLower(path.Ext(file)) != ".wav" {
		return &models.Audio{ID: h, Data: data}, nil
	}
	return decodeWAV(h, data)
}

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

func decodeWAV(h asset.Handle, data []byte) (*models.Audio, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, parseError("not a readable WAV file", d.Err())
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, parseError(fmt.Sprintf("unsupported WAV encoding %#x", d.WavAudioFormat), nil)
	}
	if err := d.FwdToPCM(); err != nil || d.PCMChunk == nil {
		return nil, parseError("WAV file lacks a data chunk", cmp.Or(err, d.Err()))
	}

	pcm := make([]byte, d.PCMChunk.Size)
	if _, err := io.ReadFull(d.PCMChunk, pcm); err != nil {
		return nil, parseError(fmt.Sprintf("data chunk of %d bytes runs past the end", len(pcm)), err)
	}
	return &models.Audio{
		ID:            h,
		SampleRate:    d.SampleRate,
		Channels:      d.NumChans,
		BitsPerSample: d.BitDepth,
		Data:          pcm,
	}, nil
}
