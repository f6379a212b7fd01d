package asset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddGetRemove(t *testing.T) {
	s := NewStore()
	m := Metadata{Handle: 42, Type: TypeTexture2D, FilePath: `textures\player.png`}

	require.NoError(t, s.Add(m))
	assert.True(t, s.Exists(42))

	got, err := s.Get(42)
	require.NoError(t, err)
	assert.Equal(t, "textures/player.png", got.FilePath)
	assert.Equal(t, StatusNone, got.Status)

	assert.True(t, s.Remove(42))
	assert.False(t, s.Remove(42))
	assert.False(t, s.Exists(42))
}

func TestStore_GetMissing(t *testing.T) {
	_, err := NewStore().Get(7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, CodeNotFound, GetErrorCode(err))
}

func TestStore_AddDuplicateDoesNotMutate(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(Metadata{Handle: 1, Type: TypeFont, FilePath: "fonts/a.ttf"}))

	err := s.Add(Metadata{Handle: 1, Type: TypeAudio, FilePath: "audio/b.wav"})
	require.ErrorIs(t, err, ErrDuplicateHandle)

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, TypeFont, got.Type)
	assert.Equal(t, "fonts/a.ttf", got.FilePath)
	assert.Equal(t, 1, s.Len())
}

func TestStore_AddNullHandle(t *testing.T) {
	s := NewStore()
	err := s.Add(Metadata{Handle: NullHandle, Type: TypeScene})
	assert.ErrorIs(t, err, ErrNullHandle)
	assert.Equal(t, 0, s.Len())
}

func TestStore_SetStatusAndOrdering(t *testing.T) {
	s := NewStore()
	for _, h := range []Handle{30, 10, 20} {
		require.NoError(t, s.Add(Metadata{Handle: h, Type: TypeScene, FilePath: "scenes/" + h.String() + ".yaml"}))
	}
	require.NoError(t, s.SetStatus(20, StatusInvalid))
	assert.Error(t, s.SetStatus(99, StatusReady))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, []Handle{10, 20, 30}, []Handle{all[0].Handle, all[1].Handle, all[2].Handle})
	assert.Equal(t, StatusInvalid, all[1].Status)

	m, ok := s.FindByPath("./scenes/30.yaml")
	require.True(t, ok)
	assert.Equal(t, Handle(30), m.Handle)
}

func TestHandle_ParseAndNew(t *testing.T) {
	h, err := ParseHandle("0x2a")
	require.NoError(t, err)
	assert.Equal(t, Handle(42), h)

	h, err = ParseHandle("42")
	require.NoError(t, err)
	assert.Equal(t, Handle(42), h)

	_, err = ParseHandle("forty-two")
	assert.Error(t, err)

	seen := make(map[Handle]struct{})
	for i := 0; i < 1000; i++ {
		n := NewHandle()
		require.False(t, n.IsNull())
		_, dup := seen[n]
		require.False(t, dup)
		seen[n] = struct{}{}
	}
}

func TestType_ParseRoundTrip(t *testing.T) {
	for _, typ := range Types {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := ParseType("Mesh")
	assert.ErrorIs(t, err, ErrParse)
}

func TestError_IsByCode(t *testing.T) {
	err := IOError("open registry", errors.New("permission denied"))
	assert.ErrorIs(t, err, ErrIO)
	assert.NotErrorIs(t, err, ErrParse)
	assert.True(t, err.Structural())
}
