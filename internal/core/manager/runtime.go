package manager

import (
	"context"
	"errors"
	"slices"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/events/bus"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/internal/core/pack"
	"github.com/zeusync/assetpack/internal/core/serialization"
	"github.com/zeusync/assetpack/pkg/concurrent"
	"github.com/zeusync/assetpack/pkg/encoding"
)

// Runtime is the distribution manager: every asset is decoded from records
// of one pack.
type Runtime struct {
	resident
	pack    *pack.Pack
	tracker serialization.SceneTracker
	path    string
	report  serialization.Report

	worker   *concurrent.Worker[decoded]
	pending  map[uint64]asset.Handle
	inflight map[asset.Handle]uint64
}

// asyncDepth bounds how many asynchronous decodes may wait to be applied.
const asyncDepth = 16

type decoded struct {
	handle asset.Handle
	asset  models.Asset
}

// NewRuntime creates a runtime manager over an empty pack that Load,
// DeserializeAll and SerializeAll read from and write to path.
func NewRuntime(tracker serialization.SceneTracker, path string, events bus.EventBus, logger log.Log) *Runtime {
	return &Runtime{
		resident: newResident(asset.NewStore(), events, logger, "runtime"),
		pack:     pack.New(tracker, logger),
		tracker:  tracker,
		path:     path,
		pending:  make(map[uint64]asset.Handle),
		inflight: make(map[asset.Handle]uint64),
	}
}

func (r *Runtime) Pack() *pack.Pack { return r.pack }

// Report is the outcome of the last pack deserialization.
func (r *Runtime) Report() serialization.Report { return r.report }

func (r *Runtime) HandleExists(h asset.Handle) bool {
	return r.store.Exists(h) || r.pack.HandleExists(h)
}

// GetAsset decodes h from its pack record on first use. Handles already
// marked Invalid are not retried.
func (r *Runtime) GetAsset(h asset.Handle) (models.Asset, bool) {
	if a, ok := r.assets[h]; ok {
		return a, true
	}
	meta, err := r.store.Get(h)
	if err != nil || meta.Status == asset.StatusInvalid {
		return nil, false
	}
	_ = r.store.SetStatus(h, asset.StatusLoading)

	var a models.Asset
	if meta.Type == asset.TypeScene {
		a, err = serialization.DeserializeScene(r.pack, h)
	} else {
		var buf encoding.Buffer
		if buf, err = r.assetBuffer(h); err == nil {
			a, err = serialization.DecodeAsset(h, buf)
		}
	}
	if err != nil {
		r.invalid(meta, err)
		return nil, false
	}
	r.loaded(a)
	return a, true
}

func (r *Runtime) assetBuffer(h asset.Handle) (encoding.Buffer, error) {
	rec, _, ok := r.pack.FindAsset(h)
	if !ok {
		return encoding.Buffer{}, notFound(h)
	}
	return r.pack.AssetBuffer(rec)
}

// AddAsset encodes a into the pack and makes it resident. A scene is added
// with every asset it references that this runtime can resolve; any other
// asset is attached under the active scene.
func (r *Runtime) AddAsset(a models.Asset) error {
	if r.store.Exists(a.Handle()) {
		return asset.NewError(asset.CodeDuplicate, "asset "+a.Handle().String(), asset.ErrDuplicateHandle)
	}
	if scene, ok := a.(*models.Scene); ok {
		err := serialization.SerializeScene(r.pack, r.tracker, scene, r)
		switch {
		case errors.Is(err, asset.ErrNotFound):
			r.logger.Warn("scene added with unresolved references", log.Stringer("scene", scene.ID), log.Error(err))
		case err != nil:
			return err
		}
	} else {
		buf, err := serialization.EncodeAsset(a)
		if err != nil {
			return err
		}
		if err = r.pack.AddAsset(a, pack.NewAssetRecord(a.Handle(), a.Type(), buf)); err != nil {
			buf.Release()
			return err
		}
	}
	if err := r.store.Add(asset.Metadata{Handle: a.Handle(), Type: a.Type()}); err != nil {
		return err
	}
	r.loaded(a)
	return nil
}

// RemoveAsset drops h from the cache, the pack and the store. Removing a
// scene also forgets the assets only that scene held.
func (r *Runtime) RemoveAsset(h asset.Handle) error {
	m, err := r.store.Get(h)
	if err != nil {
		return notFound(h)
	}
	r.pack.Remove(h)
	r.forget(h)
	r.removed(m)
	for _, other := range r.store.All() {
		if !r.pack.HandleExists(other.Handle) {
			r.forget(other.Handle)
			r.removed(other)
		}
	}
	return nil
}

// SerializeAll writes the pack to the runtime's path.
func (r *Runtime) SerializeAll() error {
	return r.pack.Save(r.path)
}

// DeserializeAll loads the pack file, registers its index and decodes every
// scene. Scenes that fail are marked Invalid; the rest stay usable.
func (r *Runtime) DeserializeAll() error {
	p := pack.New(r.tracker, r.logger)
	if err := p.Load(r.path); err != nil {
		return err
	}
	r.Attach(p)
	return nil
}

// Attach replaces the current pack with p, which the runtime now owns, and
// indexes it as DeserializeAll does.
func (r *Runtime) Attach(p *pack.Pack) {
	if r.pack != p {
		_ = r.pack.Close()
	}
	r.pack = p
	r.reset()
	clear(r.pending)
	clear(r.inflight)

	r.report = serialization.DeserializePack(p, r.store, r.logger)
	events := make([]bus.Event, 0, len(r.report.Scenes)+len(r.report.Failed))
	for _, h := range sortedHandles(r.report.Scenes) {
		scene := r.report.Scenes[h]
		r.install(scene)
		events = append(events, bus.NewAssetEvent(bus.EventAssetLoaded, r.source, h, asset.TypeScene, nil))
	}
	for _, f := range r.report.Failed {
		if f.Handle.IsNull() {
			continue
		}
		events = append(events, bus.NewAssetEvent(bus.EventAssetInvalid, r.source, f.Handle, asset.TypeScene, f.Err))
	}
	r.publishBatch(events)
	r.logger.Info("pack attached",
		log.Int("scenes", len(r.report.Scenes)),
		log.Int("failed", len(r.report.Failed)),
		log.Int("assets", r.store.Len()),
	)
}

// DecodeAsync reads h's record on the calling goroutine and decodes it on
// the background worker under ctx. Apply installs the result. A handle that
// is resident or already queued is not submitted again. When the queue is
// full the error wraps concurrent.ErrQueueFull, h keeps its status and the
// caller may Apply and retry.
func (r *Runtime) DecodeAsync(ctx context.Context, h asset.Handle) error {
	if r.AssetLoaded(h) {
		return nil
	}
	if _, queued := r.inflight[h]; queued {
		return nil
	}
	meta, err := r.store.Get(h)
	if err != nil {
		return notFound(h)
	}
	job, err := r.decodeJob(meta)
	if err != nil {
		r.invalid(meta, err)
		return err
	}
	if r.worker == nil {
		r.worker = concurrent.NewWorker[decoded](context.Background(), asyncDepth)
	}
	id, err := r.worker.Submit(ctx, job)
	if err != nil {
		return asset.WrapError(err, "decode "+h.String())
	}
	_ = r.store.SetStatus(h, asset.StatusLoading)
	r.pending[id] = h
	r.inflight[h] = id
	return nil
}

// decodeJob copies the bytes h needs so the job owns them and touches no
// pack state.
func (r *Runtime) decodeJob(meta asset.Metadata) (func(context.Context) (decoded, error), error) {
	h := meta.Handle
	if meta.Type != asset.TypeScene {
		rec, err := r.assetBuffer(h)
		if err != nil {
			return nil, err
		}
		buf := encoding.Copy(rec.Bytes())
		return func(context.Context) (decoded, error) {
			a, err := serialization.DecodeAsset(h, buf)
			return decoded{handle: h, asset: a}, err
		}, nil
	}

	rec, ok := r.pack.Scene(h)
	if !ok {
		return nil, notFound(h)
	}
	name, steps := rec.Name, rec.StepFrames
	handles := rec.EntityHandles()
	bufs := make([]encoding.Buffer, len(handles))
	for i, eh := range handles {
		buf, err := r.pack.EntityBuffer(rec.Entities[eh])
		if err != nil {
			return nil, err
		}
		bufs[i] = encoding.Copy(buf.Bytes())
	}
	return func(ctx context.Context) (decoded, error) {
		scene := models.NewScene(h, name)
		scene.StepFrames = steps
		for i, eh := range handles {
			if err := ctx.Err(); err != nil {
				return decoded{handle: h}, err
			}
			e, err := serialization.DecodeEntity(eh, bufs[i])
			if err != nil {
				return decoded{handle: h}, err
			}
			scene.AddEntity(e)
		}
		return decoded{handle: h, asset: scene}, nil
	}, nil
}

// Apply installs every finished asynchronous decode and returns how many
// completions were consumed.
func (r *Runtime) Apply() int {
	if r.worker == nil {
		return 0
	}
	return r.worker.Drain(r.complete)
}

// Await blocks until every pending decode has finished and been applied,
// or ctx ends.
func (r *Runtime) Await(ctx context.Context) error {
	for len(r.pending) > 0 {
		c, err := r.worker.Next(ctx)
		if err != nil {
			return err
		}
		r.complete(c)
	}
	return nil
}

// complete installs one decode result. Results for handles that were
// removed, reloaded synchronously or marked Invalid meanwhile are dropped,
// so the first resident copy stays the only one.
func (r *Runtime) complete(c concurrent.Completion[decoded]) {
	h, ok := r.pending[c.ID]
	delete(r.pending, c.ID)
	if !ok {
		return
	}
	delete(r.inflight, h)
	meta, err := r.store.Get(h)
	if err != nil || meta.Status != asset.StatusLoading || r.AssetLoaded(h) {
		return
	}
	switch {
	case errors.Is(c.Err, context.Canceled), errors.Is(c.Err, context.DeadlineExceeded):
		_ = r.store.SetStatus(h, asset.StatusNone)
		r.logger.Debug("asynchronous decode cancelled", log.Stringer("handle", h))
	case c.Err != nil:
		r.invalid(meta, c.Err)
	default:
		r.loaded(c.Value.asset)
	}
}

// forget drops any queued decode of h.
func (r *Runtime) forget(h asset.Handle) {
	if id, ok := r.inflight[h]; ok {
		delete(r.pending, id)
		delete(r.inflight, h)
	}
}

// Pending reports how many asynchronous decodes have not been applied.
func (r *Runtime) Pending() int { return len(r.pending) }

// Close stops the worker and releases the pack.
func (r *Runtime) Close() error {
	if r.events != nil {
		m := r.events.GetMetrics()
		r.logger.Debug("runtime closed",
			log.Int("events", int(m.Published)),
			log.Int("event_errors", int(m.Errors)),
		)
	}
	if r.worker != nil {
		_ = r.worker.Close()
		r.worker = nil
	}
	return r.pack.Close()
}

func sortedHandles[V any](m map[asset.Handle]V) []asset.Handle {
	out := make([]asset.Handle, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}
