// Package manager resolves asset handles to live assets. The Editor loads
// standalone source files through the registry; the Runtime decodes records
// from a pack. Both keep one resident copy per handle and are owned by a
// single goroutine.
package manager

import (
	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/events/bus"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/internal/core/observability/log"
)

type Manager interface {
	// GetAsset returns the resident asset for h, loading it on first use. A
	// load failure marks h Invalid and reports false.
	GetAsset(h asset.Handle) (models.Asset, bool)
	HandleExists(h asset.Handle) bool
	AssetLoaded(h asset.Handle) bool
	AddAsset(a models.Asset) error
	RemoveAsset(h asset.Handle) error
	SerializeAll() error
	DeserializeAll() error
}

var (
	_ Manager = (*Editor)(nil)
	_ Manager = (*Runtime)(nil)
)

// resident holds the loaded assets of a manager and publishes their
// lifecycle events.
type resident struct {
	store  *asset.Store
	assets map[asset.Handle]models.Asset
	events bus.EventBus
	logger log.Log
	source string
}

func newResident(store *asset.Store, events bus.EventBus, logger log.Log, source string) resident {
	return resident{
		store:  store,
		assets: make(map[asset.Handle]models.Asset),
		events: events,
		logger: logger.With(log.String("component", source)),
		source: source,
	}
}

func (r *resident) Store() *asset.Store { return r.store }

func (r *resident) AssetLoaded(h asset.Handle) bool {
	_, ok := r.assets[h]
	return ok
}

// Loaded returns the handles of every resident asset of type t.
func (r *resident) Loaded(t asset.Type) []asset.Handle {
	var out []asset.Handle
	for _, m := range r.store.OfType(t) {
		if _, ok := r.assets[m.Handle]; ok {
			out = append(out, m.Handle)
		}
	}
	return out
}

func (r *resident) loaded(a models.Asset) {
	r.install(a)
	r.publish(bus.EventAssetLoaded, a.Handle(), a.Type(), nil)
}

// install makes a resident without announcing it.
func (r *resident) install(a models.Asset) {
	r.assets[a.Handle()] = a
	_ = r.store.SetStatus(a.Handle(), asset.StatusReady)
}

func (r *resident) invalid(m asset.Metadata, err error) {
	delete(r.assets, m.Handle)
	_ = r.store.SetStatus(m.Handle, asset.StatusInvalid)
	r.logger.Warn("asset failed to load",
		log.Stringer("handle", m.Handle),
		log.Stringer("type", m.Type),
		log.String("path", m.FilePath),
		log.Error(err),
	)
	r.publish(bus.EventAssetInvalid, m.Handle, m.Type, err)
}

func (r *resident) removed(m asset.Metadata) {
	delete(r.assets, m.Handle)
	r.store.Remove(m.Handle)
	r.publish(bus.EventAssetRemoved, m.Handle, m.Type, nil)
}

func (r *resident) reset() {
	clear(r.assets)
	r.store.Clear()
}

func (r *resident) publish(eventType string, h asset.Handle, t asset.Type, cause error) {
	if r.events == nil {
		return
	}
	err := r.events.PublishWithFilters(bus.NewAssetEvent(eventType, r.source, h, t, cause), bus.HasAssetHandle)
	if err != nil {
		r.logger.Warn("asset event handler failed",
			log.String("event", eventType),
			log.Stringer("handle", h),
			log.Error(err),
		)
	}
}

// publishBatch delivers events in order and logs handler failures once.
func (r *resident) publishBatch(events []bus.Event) {
	if r.events == nil || len(events) == 0 {
		return
	}
	if err := r.events.PublishBatch(events...); err != nil {
		r.logger.Warn("asset event handlers failed", log.Int("events", len(events)), log.Error(err))
	}
}

func notFound(h asset.Handle) error {
	return asset.NewError(asset.CodeNotFound, "asset "+h.String(), asset.ErrNotFound)
}
