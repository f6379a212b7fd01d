// Package pack models the binary distribution container: a header and an
// index of scene records, each owning the encoded bytes of its entities and
// of every asset it references.
package pack

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/pkg/encoding"
)

const Version uint32 = 1

// Magic is the signature every pack file starts with.
var Magic = [3]byte{'Z', 'S', 'P'}

type Header struct {
	Magic     [3]byte
	Version   uint32
	BuildTime time.Time
}

// ActiveSceneTracker reports the scene non-scene assets are attached under.
type ActiveSceneTracker interface {
	ActiveScene() asset.Handle
}

// BrokenScene is an index entry that could not be parsed during Load. Handle
// is null when the failure happened before the handle was read.
type BrokenScene struct {
	Index  int
	Handle asset.Handle
	Err    error
}

type Option func(*Pack)

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pack) { p.now = now }
}

// Pack is single-owner: one goroutine reads and mutates it.
type Pack struct {
	header  Header
	tracker ActiveSceneTracker
	scenes  map[asset.Handle]*SceneRecord
	handles map[asset.Handle]struct{}
	broken  []BrokenScene

	source io.ReaderAt
	closer io.Closer

	now    func() time.Time
	logger log.Log
}

func New(tracker ActiveSceneTracker, logger log.Log, opts ...Option) *Pack {
	p := &Pack{
		header:  Header{Magic: Magic, Version: Version},
		tracker: tracker,
		scenes:  make(map[asset.Handle]*SceneRecord),
		handles: make(map[asset.Handle]struct{}),
		now:     time.Now,
		logger:  logger.With(log.String("component", "pack")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pack) Header() Header { return p.header }

func (p *Pack) Broken() []BrokenScene { return slices.Clone(p.broken) }

// HandleExists checks the flat lookup set, then scans scene handles and every
// scene's asset and entity maps.
func (p *Pack) HandleExists(h asset.Handle) bool {
	if _, ok := p.handles[h]; ok {
		return true
	}
	if _, ok := p.scenes[h]; ok {
		return true
	}
	for _, s := range p.scenes {
		if _, ok := s.Assets[h]; ok {
			return true
		}
		if _, ok := s.Entities[h]; ok {
			return true
		}
	}
	return false
}

// AddAsset inserts a scene record under the scene's handle, or attaches a
// non-scene asset record under the active scene. Attaching fails when the
// active scene is not in the pack.
func (p *Pack) AddAsset(obj models.Asset, rec Record) error {
	h := obj.Handle()
	if h.IsNull() {
		return asset.NewError(asset.CodeNullHandle, "add asset to pack", asset.ErrNullHandle)
	}

	if obj.Type() == asset.TypeScene {
		sr, ok := rec.(*SceneRecord)
		if !ok {
			return fmt.Errorf("scene %s needs a *SceneRecord, got %T", h, rec)
		}
		sr.Handle = h
		if old, exists := p.scenes[h]; exists && old != sr {
			old.Release()
		}
		p.scenes[h] = sr
		p.handles[h] = struct{}{}
		for child := range sr.Assets {
			p.handles[child] = struct{}{}
		}
		for child := range sr.Entities {
			p.handles[child] = struct{}{}
		}
		return nil
	}

	ar, ok := rec.(*AssetRecord)
	if !ok {
		return fmt.Errorf("asset %s needs an *AssetRecord, got %T", h, rec)
	}
	active := asset.NullHandle
	if p.tracker != nil {
		active = p.tracker.ActiveScene()
	}
	scene, ok := p.scenes[active]
	if !ok {
		return asset.NewError(asset.CodeNotFound, "active scene "+active.String()+" is not in the pack", asset.ErrNotFound).
			WithContext("asset", h)
	}
	ar.Handle = h
	ar.Type = obj.Type()
	scene.putAsset(ar)
	p.handles[h] = struct{}{}
	return nil
}

// RemoveAsset releases and erases obj's record.
func (p *Pack) RemoveAsset(obj models.Asset) error {
	if !p.Remove(obj.Handle()) {
		return asset.NewError(asset.CodeNotFound, "remove "+obj.Handle().String()+" from pack", asset.ErrNotFound)
	}
	return nil
}

// Remove releases and erases whatever h names: a scene record with its
// children, or an asset or entity record in every scene holding it.
func (p *Pack) Remove(h asset.Handle) bool {
	removed := false
	if s, ok := p.scenes[h]; ok {
		s.Release()
		delete(p.scenes, h)
		for child := range s.Assets {
			delete(p.handles, child)
		}
		for child := range s.Entities {
			delete(p.handles, child)
		}
		removed = true
	}
	for _, s := range p.scenes {
		if a, ok := s.Assets[h]; ok {
			a.Release()
			delete(s.Assets, h)
			removed = true
		}
		if e, ok := s.Entities[h]; ok {
			e.Release()
			delete(s.Entities, h)
			removed = true
		}
	}
	delete(p.handles, h)
	return removed
}

func (p *Pack) Scene(h asset.Handle) (*SceneRecord, bool) {
	s, ok := p.scenes[h]
	return s, ok
}

// Scenes returns the scene records ordered by handle.
func (p *Pack) Scenes() []*SceneRecord {
	out := make([]*SceneRecord, 0, len(p.scenes))
	for _, h := range sortedKeys(p.scenes) {
		out = append(out, p.scenes[h])
	}
	return out
}

// FindAsset returns the first record for h, searching scenes in handle order.
func (p *Pack) FindAsset(h asset.Handle) (*AssetRecord, *SceneRecord, bool) {
	for _, s := range p.Scenes() {
		if a, ok := s.Assets[h]; ok {
			return a, s, true
		}
	}
	return nil, nil, false
}

// AssetBuffer returns rec's bytes, reading them from the pack source on first
// access. The record keeps ownership.
func (p *Pack) AssetBuffer(rec *AssetRecord) (encoding.Buffer, error) {
	if err := p.populate(&rec.Buffer, rec.Offset, rec.Size); err != nil {
		return encoding.Buffer{}, fmt.Errorf("asset %s: %w", rec.Handle, err)
	}
	return rec.Buffer, nil
}

// EntityBuffer returns rec's component tag stream, reading it on first access.
func (p *Pack) EntityBuffer(rec *EntityRecord) (encoding.Buffer, error) {
	if err := p.populate(&rec.Buffer, rec.Offset, rec.Size); err != nil {
		return encoding.Buffer{}, fmt.Errorf("entity %s: %w", rec.Handle, err)
	}
	return rec.Buffer, nil
}

func (p *Pack) populate(buf *encoding.Buffer, offset, size int64) error {
	if buf.Populated() || size == 0 {
		if !buf.Populated() {
			*buf = encoding.Allocate(0)
		}
		return nil
	}
	if p.source == nil {
		return asset.NewError(asset.CodeNotFound, "record has no data and the pack has no source", asset.ErrNotFound)
	}
	data := make([]byte, size)
	if _, err := p.source.ReadAt(data, offset); err != nil {
		return asset.IOError(fmt.Sprintf("read %d bytes at %d", size, offset), err)
	}
	*buf = encoding.Wrap(data)
	return nil
}

// Release drops every buffer the pack owns; lazily read records can be
// populated again while the source is open.
func (p *Pack) Release() {
	for _, s := range p.scenes {
		s.Release()
	}
}

// Close releases all buffers and the file the pack was loaded from.
func (p *Pack) Close() error {
	p.Release()
	p.source = nil
	if p.closer != nil {
		err := p.closer.Close()
		p.closer = nil
		return err
	}
	return nil
}

func (p *Pack) reset() {
	_ = p.Close()
	p.header = Header{Magic: Magic, Version: Version}
	p.scenes = make(map[asset.Handle]*SceneRecord)
	p.handles = make(map[asset.Handle]struct{})
	p.broken = nil
}
