package pack

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/pkg/encoding"
)

type activeScene asset.Handle

func (a *activeScene) ActiveScene() asset.Handle { return asset.Handle(*a) }

var buildTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestPack(active *activeScene) *Pack {
	return New(active, log.NewNop(), WithClock(func() time.Time { return buildTime }))
}

func fixturePack(t *testing.T) (*Pack, *activeScene) {
	t.Helper()
	active := new(activeScene)
	p := newTestPack(active)

	for _, sc := range []struct {
		handle asset.Handle
		name   string
	}{{100, "Menu"}, {200, "Level"}} {
		rec := NewSceneRecord(sc.handle, sc.name, uint64(sc.handle)/10)
		rec.AddEntity(sc.handle+1, encoding.Copy([]byte{1, 0, 2, 0}))
		rec.AddEntity(sc.handle+2, encoding.Copy([]byte{9, 9, 9}))
		require.NoError(t, p.AddAsset(models.NewScene(sc.handle, sc.name), rec))

		*active = activeScene(sc.handle)
		tex := &models.Texture{ID: sc.handle + 50}
		require.NoError(t, p.AddAsset(tex, NewAssetRecord(0, 0, encoding.Copy([]byte("pixels-"+sc.name)))))
	}
	return p, active
}

func TestPack_EncodeLoadRoundTrip(t *testing.T) {
	p, _ := fixturePack(t)
	buf, err := p.Encode()
	require.NoError(t, err)

	loaded := newTestPack(new(activeScene))
	require.NoError(t, loaded.LoadFrom(bytes.NewReader(buf.Bytes()), int64(buf.Len())))
	assert.Empty(t, loaded.Broken())

	h := loaded.Header()
	assert.Equal(t, Magic, h.Magic)
	assert.Equal(t, Version, h.Version)
	assert.True(t, buildTime.Equal(h.BuildTime))

	scenes := loaded.Scenes()
	require.Len(t, scenes, 2)
	assert.Equal(t, "Menu", scenes[0].Name)
	assert.Equal(t, uint64(20), scenes[1].StepFrames)

	for _, orig := range p.Scenes() {
		got, ok := loaded.Scene(orig.Handle)
		require.True(t, ok)
		assert.Equal(t, orig.AssetHandles(), got.AssetHandles())
		assert.Equal(t, orig.EntityHandles(), got.EntityHandles())

		for ah, a := range orig.Assets {
			rec := got.Assets[ah]
			assert.False(t, rec.Buffer.Populated(), "buffers are populated lazily")
			data, err := loaded.AssetBuffer(rec)
			require.NoError(t, err)
			assert.Equal(t, a.Buffer.Bytes(), data.Bytes())
			assert.Equal(t, asset.TypeTexture2D, rec.Type)
		}
		for eh, e := range orig.Entities {
			data, err := loaded.EntityBuffer(got.Entities[eh])
			require.NoError(t, err)
			assert.Equal(t, e.Buffer.Bytes(), data.Bytes())
		}
	}
}

func TestPack_EncodeIsStableAcrossReload(t *testing.T) {
	p, _ := fixturePack(t)
	first, err := p.Encode()
	require.NoError(t, err)

	loaded := newTestPack(new(activeScene))
	require.NoError(t, loaded.LoadFrom(bytes.NewReader(first.Bytes()), int64(first.Len())))
	second, err := loaded.Encode()
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
	assert.Equal(t, uint64(first.Len()), encoding.ByteOrder.Uint64(first.Bytes()[16:24]))
}

func TestPack_RejectsBadMagic(t *testing.T) {
	p, _ := fixturePack(t)
	buf, err := p.Encode()
	require.NoError(t, err)

	data := bytes.Clone(buf.Bytes())
	copy(data, "XYZ")

	loaded := newTestPack(new(activeScene))
	err = loaded.LoadFrom(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.ErrorIs(t, err, asset.ErrParse)
	assert.Empty(t, loaded.Scenes())
	assert.Empty(t, loaded.Broken())
}

func TestPack_RejectsBadVersionAndSize(t *testing.T) {
	p, _ := fixturePack(t)
	buf, err := p.Encode()
	require.NoError(t, err)

	wrongVersion := bytes.Clone(buf.Bytes())
	encoding.ByteOrder.PutUint32(wrongVersion[4:8], Version+1)
	err = newTestPack(nil).LoadFrom(bytes.NewReader(wrongVersion), int64(len(wrongVersion)))
	assert.ErrorIs(t, err, asset.ErrParse)

	truncated := buf.Bytes()[:buf.Len()-1]
	err = newTestPack(nil).LoadFrom(bytes.NewReader(truncated), int64(len(truncated)))
	assert.ErrorIs(t, err, asset.ErrParse)

	err = newTestPack(nil).LoadFrom(bytes.NewReader([]byte("ZS")), 2)
	assert.ErrorIs(t, err, asset.ErrParse)
}

func TestPack_BrokenSceneIsSkipped(t *testing.T) {
	p, _ := fixturePack(t)
	bad := NewSceneRecord(300, "Broken", 0)
	bad.Assets[301] = &AssetRecord{Handle: 301, Type: asset.Type(77), Buffer: encoding.Copy([]byte{1})}
	require.NoError(t, p.AddAsset(models.NewScene(300, "Broken"), bad))

	buf, err := p.Encode()
	require.NoError(t, err)

	loaded := newTestPack(new(activeScene))
	require.NoError(t, loaded.LoadFrom(bytes.NewReader(buf.Bytes()), int64(buf.Len())))

	broken := loaded.Broken()
	require.Len(t, broken, 1)
	assert.Equal(t, asset.Handle(300), broken[0].Handle)
	assert.ErrorIs(t, broken[0].Err, asset.ErrUnknownTag)

	assert.Len(t, loaded.Scenes(), 2)
	assert.False(t, loaded.HandleExists(300))
	assert.True(t, loaded.HandleExists(250))
}

func TestPack_AddAssetNeedsActiveScene(t *testing.T) {
	active := activeScene(999)
	p := newTestPack(&active)

	err := p.AddAsset(&models.Font{ID: 5}, NewAssetRecord(0, 0, encoding.Copy([]byte("ttf"))))
	require.Error(t, err)
	assert.ErrorIs(t, err, asset.ErrNotFound)
	assert.False(t, p.HandleExists(5))

	err = p.AddAsset(models.NewScene(999, "S"), NewAssetRecord(0, 0, encoding.Buffer{}))
	assert.Error(t, err)
}

func TestPack_HandleExistsAndRemove(t *testing.T) {
	p, active := fixturePack(t)

	*active = 100
	shared := &models.Audio{ID: 777}
	require.NoError(t, p.AddAsset(shared, NewAssetRecord(0, 0, encoding.Copy([]byte("a")))))
	*active = 200
	require.NoError(t, p.AddAsset(shared, NewAssetRecord(0, 0, encoding.Copy([]byte("a")))))

	for _, h := range []asset.Handle{100, 101, 102, 150, 200, 201, 250, 777} {
		assert.True(t, p.HandleExists(h), "handle %d", h)
	}

	require.NoError(t, p.RemoveAsset(models.NewScene(100, "Menu")))
	assert.False(t, p.HandleExists(100))
	assert.False(t, p.HandleExists(101))
	assert.True(t, p.HandleExists(777), "shared asset still held by the other scene")

	rec, scene, ok := p.FindAsset(777)
	require.True(t, ok)
	assert.Equal(t, asset.Handle(200), scene.Handle)
	assert.Equal(t, asset.TypeAudio, rec.Type)

	require.NoError(t, p.RemoveAsset(shared))
	assert.False(t, p.HandleExists(777))
	assert.ErrorIs(t, p.RemoveAsset(shared), asset.ErrNotFound)
}

func TestPack_RemoveReleasesBuffers(t *testing.T) {
	p, _ := fixturePack(t)
	rec, _ := p.Scene(200)
	entity := rec.Entities[201]
	tex := rec.Assets[250]

	assert.True(t, p.Remove(200))
	assert.False(t, entity.Buffer.Populated())
	assert.False(t, tex.Buffer.Populated())
}

func TestPack_SaveAndLoadFile(t *testing.T) {
	p, _ := fixturePack(t)
	path := filepath.Join(t.TempDir(), "game.zsp")
	require.NoError(t, p.Save(path))

	st, err := os.Stat(path)
	require.NoError(t, err)

	loaded := newTestPack(new(activeScene))
	require.NoError(t, loaded.Load(path))
	defer func() { assert.NoError(t, loaded.Close()) }()

	scene, ok := loaded.Scene(200)
	require.True(t, ok)
	assert.Equal(t, st.Size(), scene.Offset+scene.Size, "last scene ends the file")

	data, err := loaded.EntityBuffer(scene.Entities[202])
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9}, data.Bytes())

	err = newTestPack(nil).Load(filepath.Join(t.TempDir(), "missing.zsp"))
	assert.ErrorIs(t, err, asset.ErrIO)
}

// failingReader fails every read that reaches past limit.
type failingReader struct {
	data  []byte
	limit int64
}

func (f failingReader) ReadAt(p []byte, off int64) (int, error) {
	if off+int64(len(p)) > f.limit {
		return 0, errors.New("device gone")
	}
	return copy(p, f.data[off:]), nil
}

func TestPack_ReadFailureLeavesPackEmpty(t *testing.T) {
	p, _ := fixturePack(t)
	buf, err := p.Encode()
	require.NoError(t, err)

	first, ok := p.Scene(100)
	require.True(t, ok)
	var sizer encoding.Sizer
	sizeScene(&sizer, first)
	// The header, the first scene and the second scene's length prefix are
	// readable; the second scene's blob is not.
	limit := alignUp(int64(headerSize+indexSize+8+sizer.Len()), 8) + 8

	loaded := newTestPack(new(activeScene))
	err = loaded.LoadFrom(failingReader{data: buf.Bytes(), limit: limit}, int64(buf.Len()))
	require.Error(t, err)
	assert.ErrorIs(t, err, asset.ErrIO)

	assert.Empty(t, loaded.Scenes())
	assert.False(t, loaded.HandleExists(100))
	assert.Equal(t, Header{Magic: Magic, Version: Version}, loaded.Header())
	_, err = loaded.Encode()
	assert.NoError(t, err, "an emptied pack still encodes")
}

func TestPack_EncodeMatchesMarshal(t *testing.T) {
	p, _ := fixturePack(t)
	buf, err := p.Encode()
	require.NoError(t, err)

	img := &fileImage{header: p.Header(), scenes: p.Scenes()}
	again, err := encoding.Marshal(img)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), again.Bytes())
	assert.Equal(t, img.total, buf.Len())
	assert.Len(t, img.sceneSizes, 2)
}
