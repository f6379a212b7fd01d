package serialization

import (
	"context"
	"fmt"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/internal/core/pack"
	"github.com/zeusync/assetpack/pkg/concurrent"
)

// AssetSource resolves the assets a scene references while it is written to a
// pack. Both asset managers satisfy it.
type AssetSource interface {
	GetAsset(h asset.Handle) (models.Asset, bool)
}

// SceneTracker is the active-scene state non-scene assets are attached under.
type SceneTracker interface {
	pack.ActiveSceneTracker
	SetActiveScene(h asset.Handle)
}

// EncodeScene builds a scene record holding every entity's tag stream. It
// touches no shared state, so several scenes can be encoded at once.
func EncodeScene(scene *models.Scene) (*pack.SceneRecord, error) {
	rec := pack.NewSceneRecord(scene.ID, scene.Name, scene.StepFrames)
	for _, e := range scene.Entities() {
		buf, err := EncodeEntity(e)
		if err != nil {
			rec.Release()
			return nil, asset.WrapError(err, "scene "+scene.ID.String())
		}
		rec.AddEntity(e.Handle(), buf)
	}
	return rec, nil
}

// SerializeScenes encodes the entity records of scenes on up to workers
// goroutines. Results keep the order of scenes.
func SerializeScenes(ctx context.Context, scenes []*models.Scene, workers int) ([]*pack.SceneRecord, error) {
	records, err := concurrent.Map(ctx, scenes, workers, func(_ context.Context, s *models.Scene) (*pack.SceneRecord, error) {
		return EncodeScene(s)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SerializeScene encodes scene and adds it, with every asset it references,
// to p.
func SerializeScene(p *pack.Pack, tracker SceneTracker, scene *models.Scene, src AssetSource) error {
	rec, err := EncodeScene(scene)
	if err != nil {
		return err
	}
	return AttachScene(p, tracker, scene, rec, src)
}

// AttachScene adds an encoded scene record to p, makes the scene active while
// its referenced assets are encoded and attached, then restores the previous
// active scene. References src cannot resolve are reported together in a
// not-found error after everything else was attached.
func AttachScene(p *pack.Pack, tracker SceneTracker, scene *models.Scene, rec *pack.SceneRecord, src AssetSource) error {
	if err := p.AddAsset(scene, rec); err != nil {
		return err
	}

	prev := tracker.ActiveScene()
	tracker.SetActiveScene(scene.ID)
	defer tracker.SetActiveScene(prev)

	var missing []asset.Handle
	for _, ref := range scene.References() {
		a, ok := src.GetAsset(ref)
		if !ok || a.Type() == asset.TypeScene {
			missing = append(missing, ref)
			continue
		}
		buf, err := EncodeAsset(a)
		if err != nil {
			return err
		}
		if err = p.AddAsset(a, pack.NewAssetRecord(ref, a.Type(), buf)); err != nil {
			buf.Release()
			return err
		}
	}
	if len(missing) > 0 {
		return asset.NewError(asset.CodeNotFound, fmt.Sprintf("scene %s references %d unavailable assets", scene.ID, len(missing)), asset.ErrNotFound).
			WithContext("missing", missing)
	}
	return nil
}

// DeserializeScene rebuilds scene h from its record in p, reading entity
// buffers from the pack source on first access.
func DeserializeScene(p *pack.Pack, h asset.Handle) (*models.Scene, error) {
	rec, ok := p.Scene(h)
	if !ok {
		return nil, asset.NewError(asset.CodeNotFound, "scene "+h.String()+" is not in the pack", asset.ErrNotFound)
	}
	scene := models.NewScene(rec.Handle, rec.Name)
	scene.StepFrames = rec.StepFrames
	for _, eh := range rec.EntityHandles() {
		buf, err := p.EntityBuffer(rec.Entities[eh])
		if err != nil {
			return nil, asset.WrapError(err, "scene "+h.String())
		}
		e, err := DecodeEntity(eh, buf)
		if err != nil {
			return nil, asset.WrapError(err, "scene "+h.String())
		}
		scene.AddEntity(e)
	}
	return scene, nil
}

// Failure is one scene that could not be decoded.
type Failure struct {
	Handle asset.Handle
	Err    error
}

// Report is the outcome of DeserializePack.
type Report struct {
	Scenes map[asset.Handle]*models.Scene
	Failed []Failure
}

// OK reports whether every scene in the pack index was decoded.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// DeserializePack registers every record in p with store and decodes every
// scene. A scene that fails, including one the pack index could not parse,
// is marked Invalid and logged; decoding continues with the next scene.
// Non-scene assets are registered and left for lazy decoding.
func DeserializePack(p *pack.Pack, store *asset.Store, logger log.Log) Report {
	report := Report{Scenes: make(map[asset.Handle]*models.Scene)}

	for _, b := range p.Broken() {
		report.Failed = append(report.Failed, Failure{Handle: b.Handle, Err: b.Err})
		if !b.Handle.IsNull() {
			register(store, b.Handle, asset.TypeScene)
			_ = store.SetStatus(b.Handle, asset.StatusInvalid)
		}
	}

	for _, rec := range p.Scenes() {
		register(store, rec.Handle, asset.TypeScene)
		for _, ah := range rec.AssetHandles() {
			register(store, ah, rec.Assets[ah].Type)
		}

		scene, err := DeserializeScene(p, rec.Handle)
		if err != nil {
			_ = store.SetStatus(rec.Handle, asset.StatusInvalid)
			report.Failed = append(report.Failed, Failure{Handle: rec.Handle, Err: err})
			logger.Warn("scene failed to decode",
				log.Stringer("scene", rec.Handle),
				log.String("name", rec.Name),
				log.Error(err),
			)
			continue
		}
		_ = store.SetStatus(rec.Handle, asset.StatusReady)
		report.Scenes[rec.Handle] = scene
	}

	logger.Debug("pack deserialized",
		log.Int("scenes", len(report.Scenes)),
		log.Int("failed", len(report.Failed)),
	)
	return report
}

func register(store *asset.Store, h asset.Handle, t asset.Type) {
	if store.Exists(h) {
		return
	}
	_ = store.Add(asset.Metadata{Handle: h, Type: t})
}
