package importer

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
)

func writeFile(t *testing.T, root, rel string, data []byte) asset.Metadata {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
	typ, ok := Detect(rel)
	require.True(t, ok, "no type for %s", rel)
	return asset.Metadata{Handle: asset.NewHandle(), Type: typ, FilePath: rel}
}

func TestDetect(t *testing.T) {
	tests := map[string]asset.Type{
		"scenes/level1.zscene": asset.TypeScene,
		"textures/Player.PNG":  asset.TypeTexture2D,
		`textures\bg.jpeg`:     asset.TypeTexture2D,
		"fonts/mono.otf":       asset.TypeFont,
		"sfx/jump.wav":         asset.TypeAudio,
		"scripts/player.lua":   asset.TypeScript,
	}
	for file, want := range tests {
		got, ok := Detect(file)
		assert.True(t, ok, file)
		assert.Equal(t, want, got, file)
	}
	_, ok := Detect("notes.txt")
	assert.False(t, ok)
}

func TestImport_PNGWithAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 128})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	root := t.TempDir()
	meta := writeFile(t, root, "textures/two.png", buf.Bytes())

	a, err := Import(meta, root)
	require.NoError(t, err)
	tex, ok := a.(*models.Texture)
	require.True(t, ok)
	assert.Equal(t, meta.Handle, tex.ID)
	assert.Equal(t, uint32(2), tex.Width)
	assert.Equal(t, uint32(1), tex.Height)
	assert.Equal(t, models.FormatRGBA8, tex.Format)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 255, 0, 128}, tex.Pixels)
}

func TestImport_OpaqueImagesDropAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 4, G: 5, B: 6, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	root := t.TempDir()
	a, err := Import(writeFile(t, root, "opaque.png", buf.Bytes()), root)
	require.NoError(t, err)
	tex := a.(*models.Texture)
	assert.Equal(t, models.FormatRGB8, tex.Format)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, tex.Pixels)
}

func TestImport_JPEG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	root := t.TempDir()
	a, err := Import(writeFile(t, root, "bg.jpg", buf.Bytes()), root)
	require.NoError(t, err)
	tex := a.(*models.Texture)
	assert.Equal(t, models.FormatRGB8, tex.Format)
	assert.Len(t, tex.Pixels, 8*4*3)
}

func TestImport_CorruptImage(t *testing.T) {
	root := t.TempDir()
	_, err := Import(writeFile(t, root, "broken.png", []byte("not a png")), root)
	assert.ErrorIs(t, err, asset.ErrParse)
}

func TestImport_Font(t *testing.T) {
	root := t.TempDir()
	a, err := Import(writeFile(t, root, "fonts/OpenSans-Regular.ttf", goregular.TTF), root)
	require.NoError(t, err)
	font := a.(*models.Font)
	assert.Equal(t, "Go", font.Family, "family comes from the name table")
	assert.Equal(t, goregular.TTF, font.Data)

	_, err = Import(writeFile(t, root, "fonts/fake.otf", []byte("GIF89a")), root)
	assert.ErrorIs(t, err, asset.ErrParse)

	truncated := append([]byte{0, 1, 0, 0}, "glyphs"...)
	_, err = Import(writeFile(t, root, "fonts/truncated.ttf", truncated), root)
	assert.ErrorIs(t, err, asset.ErrParse, "a valid signature alone is not a font")
}

func wavFile(channels uint16, rate uint32, bits uint16, samples []byte) []byte {
	return wavFileFormat(1, channels, rate, bits, samples)
}

// wavFileFormat writes a RIFF/WAVE file with a JUNK chunk between fmt and
// data. WAVE_FORMAT_EXTENSIBLE gets the 40 byte fmt chunk with a PCM
// sub-format.
func wavFileFormat(format, channels uint16, rate uint32, bits uint16, samples []byte) []byte {
	le := binary.LittleEndian
	var fmtChunk bytes.Buffer
	_ = binary.Write(&fmtChunk, le, format)
	_ = binary.Write(&fmtChunk, le, channels)
	_ = binary.Write(&fmtChunk, le, rate)
	_ = binary.Write(&fmtChunk, le, rate*uint32(channels)*uint32(bits/8))
	_ = binary.Write(&fmtChunk, le, channels*bits/8)
	_ = binary.Write(&fmtChunk, le, bits)
	if format == 0xFFFE {
		_ = binary.Write(&fmtChunk, le, uint16(22))
		_ = binary.Write(&fmtChunk, le, bits)
		_ = binary.Write(&fmtChunk, le, uint32(3))
		// KSDATAFORMAT_SUBTYPE_PCM
		fmtChunk.Write([]byte{1, 0, 0, 0, 0, 0, 0x10, 0, 0x80, 0, 0, 0xaa, 0, 0x38, 0x9b, 0x71})
	}

	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, le, uint32(4+8+fmtChunk.Len()+8+2+8+len(samples)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, le, uint32(fmtChunk.Len()))
	b.Write(fmtChunk.Bytes())
	b.WriteString("JUNK")
	_ = binary.Write(&b, le, uint32(2))
	b.Write([]byte{0, 0})
	b.WriteString("data")
	_ = binary.Write(&b, le, uint32(len(samples)))
	b.Write(samples)
	return b.Bytes()
}

func TestImport_WAV(t *testing.T) {
	root := t.TempDir()
	samples := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	a, err := Import(writeFile(t, root, "sfx/jump.wav", wavFile(2, 22050, 16, samples)), root)
	require.NoError(t, err)

	audio := a.(*models.Audio)
	assert.Equal(t, uint32(22050), audio.SampleRate)
	assert.Equal(t, uint16(2), audio.Channels)
	assert.Equal(t, uint16(16), audio.BitsPerSample)
	assert.Equal(t, samples, audio.Data)

	_, err = Import(writeFile(t, root, "sfx/bad.wav", []byte("RIFF\x00\x00\x00\x00WAVE")), root)
	assert.ErrorIs(t, err, asset.ErrParse)

	_, err = Import(writeFile(t, root, "sfx/float.wav", wavFileFormat(3, 1, 44100, 32, samples)), root)
	assert.ErrorIs(t, err, asset.ErrParse, "IEEE float samples are not PCM")

	raw, err := Import(writeFile(t, root, "music/theme.ogg", []byte("OggS...")), root)
	require.NoError(t, err)
	assert.Equal(t, []byte("OggS..."), raw.(*models.Audio).Data)
	assert.Zero(t, raw.(*models.Audio).SampleRate)
}

func TestImport_ExtensibleWAV(t *testing.T) {
	root := t.TempDir()
	samples := []byte{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3}
	a, err := Import(writeFile(t, root, "sfx/surround.wav", wavFileFormat(0xFFFE, 2, 48000, 24, samples)), root)
	require.NoError(t, err)

	want := &models.Audio{ID: a.Handle(), SampleRate: 48000, Channels: 2, BitsPerSample: 24, Data: samples}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("extensible WAV mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_Script(t *testing.T) {
	root := t.TempDir()
	src := "function on_update(dt) end\n"
	a, err := Import(writeFile(t, root, "scripts/PlayerController.lua", []byte(src)), root)
	require.NoError(t, err)
	script := a.(*models.Script)
	assert.Equal(t, "PlayerController", script.ClassName)
	assert.Equal(t, src, script.Source)

	out := filepath.Join(root, "exported", "copy.lua")
	written, err := Export(script, out)
	require.NoError(t, err)
	assert.Equal(t, script.Source, string(written))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, src, string(data))
}

func TestScene_ExportImportRoundTrip(t *testing.T) {
	scene := models.NewScene(asset.NewHandle(), "Level 1")
	scene.StepFrames = 2
	player := scene.CreateEntity("Player")
	player.Set(&models.SpriteRenderer{Color: models.White, Texture: 42, TilingFactor: 1.5})
	player.Set(&models.Rigidbody2D{Type: models.BodyDynamic})
	cam := scene.CreateEntity("Camera")
	cam.Set(&models.Camera{Projection: models.ProjectionOrthographic, OrthographicSize: 10, OrthographicNear: -1, OrthographicFar: 1, Primary: true})

	root := t.TempDir()
	_, err := Export(scene, filepath.Join(root, "scenes", "level1.zscene"))
	require.NoError(t, err)

	meta := asset.Metadata{Handle: scene.ID, Type: asset.TypeScene, FilePath: "scenes/level1.zscene"}
	a, err := Import(meta, root)
	require.NoError(t, err)
	got := a.(*models.Scene)

	assert.Equal(t, scene.Name, got.Name)
	assert.Equal(t, scene.StepFrames, got.StepFrames)
	require.Equal(t, scene.EntityCount(), got.EntityCount())
	for _, want := range scene.Entities() {
		e, ok := got.Entity(want.Handle())
		require.True(t, ok)
		if diff := cmp.Diff(want.Components(), e.Components()); diff != "" {
			t.Errorf("entity %s mismatch (-want +got):\n%s", want.Handle(), diff)
		}
	}
}

func TestDecodeScene(t *testing.T) {
	doc := `
Scene: Menu
Entities:
  - Entity: 0x10
    Tag: {Name: Title}
    Text: {Text: Play, Font: 7, Color: [1, 1, 1, 1]}
  - Tag: {Name: Anonymous}
`
	scene, err := DecodeScene(5, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Menu", scene.Name)
	require.Equal(t, 2, scene.EntityCount())

	title, ok := scene.Entity(16)
	require.True(t, ok)
	assert.Equal(t, "Title", title.Name())
	assert.Equal(t, []asset.Handle{7}, scene.References())

	_, err = DecodeScene(5, []byte("Scene: X\nEntities:\n  - Entity: 1\n    Teleporter: {}\n"))
	assert.ErrorIs(t, err, asset.ErrParse, "unknown component")

	_, err = DecodeScene(5, []byte("Entities:\n  - Entity: 1\n  - Entity: 1\n"))
	assert.ErrorIs(t, err, asset.ErrParse, "duplicate entity")

	empty, err := DecodeScene(5, nil)
	require.NoError(t, err)
	assert.Zero(t, empty.EntityCount())
}

func TestImport_Failures(t *testing.T) {
	root := t.TempDir()
	_, err := Import(asset.Metadata{Handle: 1, Type: asset.TypeFont, FilePath: "missing.ttf"}, root)
	assert.ErrorIs(t, err, asset.ErrIO)

	_, err = Import(asset.Metadata{Type: asset.TypeFont, FilePath: "missing.ttf"}, root)
	assert.ErrorIs(t, err, asset.ErrNullHandle)

	_, err = Export(&models.Font{ID: 1}, filepath.Join(root, "font.ttf"))
	assert.ErrorIs(t, err, asset.ErrUnknownTag)
}
