package pack

import (
	"slices"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/pkg/encoding"
)

// Record is implemented by the records AddAsset accepts: *SceneRecord for
// scenes and *AssetRecord for everything else.
type Record interface {
	record()
	Release()
}

// AssetRecord holds one non-scene asset's encoded bytes. Offset and Size
// locate the bytes in the pack file when the record was loaded from one; the
// Buffer is then populated on first access.
type AssetRecord struct {
	Handle asset.Handle
	Type   asset.Type
	Offset int64
	Size   int64
	Buffer encoding.Buffer
}

// EntityRecord holds one entity's component tag stream.
type EntityRecord struct {
	Handle asset.Handle
	Offset int64
	Size   int64
	Buffer encoding.Buffer
}

// SceneRecord is one serialized scene plus everything it references. It owns
// every child buffer.
type SceneRecord struct {
	Handle     asset.Handle
	Name       string
	StepFrames uint64
	Offset     int64
	Size       int64
	Assets     map[asset.Handle]*AssetRecord
	Entities   map[asset.Handle]*EntityRecord
}

func NewSceneRecord(h asset.Handle, name string, stepFrames uint64) *SceneRecord {
	return &SceneRecord{
		Handle:     h,
		Name:       name,
		StepFrames: stepFrames,
		Assets:     make(map[asset.Handle]*AssetRecord),
		Entities:   make(map[asset.Handle]*EntityRecord),
	}
}

// NewAssetRecord takes ownership of buf.
func NewAssetRecord(h asset.Handle, typ asset.Type, buf encoding.Buffer) *AssetRecord {
	return &AssetRecord{Handle: h, Type: typ, Size: int64(buf.Len()), Buffer: buf}
}

// AddEntity takes ownership of buf, releasing any record it replaces.
func (r *SceneRecord) AddEntity(h asset.Handle, buf encoding.Buffer) *EntityRecord {
	if old, ok := r.Entities[h]; ok {
		old.Release()
	}
	rec := &EntityRecord{Handle: h, Size: int64(buf.Len()), Buffer: buf}
	r.Entities[h] = rec
	return rec
}

func (r *SceneRecord) putAsset(rec *AssetRecord) {
	if old, ok := r.Assets[rec.Handle]; ok && old != rec {
		old.Release()
	}
	r.Assets[rec.Handle] = rec
}

// AssetHandles returns the child asset handles in ascending order.
func (r *SceneRecord) AssetHandles() []asset.Handle {
	return sortedKeys(r.Assets)
}

// EntityHandles returns the child entity handles in ascending order.
func (r *SceneRecord) EntityHandles() []asset.Handle {
	return sortedKeys(r.Entities)
}

// Release drops every child buffer.
func (r *SceneRecord) Release() {
	for _, a := range r.Assets {
		a.Release()
	}
	for _, e := range r.Entities {
		e.Release()
	}
}

func (r *AssetRecord) Release()  { r.Buffer.Release() }
func (r *EntityRecord) Release() { r.Buffer.Release() }

func (*SceneRecord) record() {}
func (*AssetRecord) record() {}

func sortedKeys[V any](m map[asset.Handle]V) []asset.Handle {
	out := make([]asset.Handle, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}
