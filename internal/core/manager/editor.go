package manager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/asset/registry"
	"github.com/zeusync/assetpack/internal/core/events/bus"
	"github.com/zeusync/assetpack/internal/core/importer"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/internal/core/project"
)

// Editor is the authoring manager: metadata lives in the registry file and
// every asset in its own source file under the project's asset directory.
type Editor struct {
	resident
	registry *registry.Registry
	project  *project.Project
	paths    map[string]asset.Handle
	// xxhash of the source bytes each resident asset was read from or last
	// written to
	digests map[asset.Handle]uint64
}

func NewEditor(p *project.Project, reg *registry.Registry, events bus.EventBus, logger log.Log) *Editor {
	e := &Editor{
		resident: newResident(reg.Store(), events, logger, "editor"),
		registry: reg,
		project:  p,
		paths:    make(map[string]asset.Handle),
		digests:  make(map[asset.Handle]uint64),
	}
	e.reindex()
	return e
}

func (e *Editor) Project() *project.Project { return e.project }

func (e *Editor) HandleExists(h asset.Handle) bool { return e.store.Exists(h) }

// GetAsset imports h's source file on first use.
func (e *Editor) GetAsset(h asset.Handle) (models.Asset, bool) {
	if a, ok := e.assets[h]; ok {
		return a, true
	}
	meta, err := e.store.Get(h)
	if err != nil {
		return nil, false
	}
	_ = e.store.SetStatus(h, asset.StatusLoading)
	a, err := e.load(meta)
	if err != nil {
		e.invalid(meta, err)
		return nil, false
	}
	e.loaded(a)
	return a, true
}

func (e *Editor) load(meta asset.Metadata) (models.Asset, error) {
	if meta.Handle.IsNull() {
		return nil, asset.NewError(asset.CodeNullHandle, "import "+meta.FilePath, asset.ErrNullHandle)
	}
	data, err := importer.ReadSource(meta, e.project.AssetDirectory())
	if err != nil {
		return nil, err
	}
	a, err := importer.Decode(meta, data)
	if err != nil {
		return nil, err
	}
	e.digests[meta.Handle] = xxhash.Sum64(data)
	return a, nil
}

// Changed returns the resident assets whose source file no longer matches
// the bytes they were loaded from or last saved to. Assets never read from
// or written to disk are not tracked. A source that cannot be read counts
// as changed.
func (e *Editor) Changed() []asset.Handle {
	var out []asset.Handle
	for _, m := range e.store.All() {
		sum, ok := e.digests[m.Handle]
		if !ok {
			continue
		}
		data, err := importer.ReadSource(m, e.project.AssetDirectory())
		if err != nil || xxhash.Sum64(data) != sum {
			out = append(out, m.Handle)
		}
	}
	return out
}

// ReloadChanged re-imports every asset Changed reports and replaces the
// resident copy. Unsaved in-memory edits to those assets are lost. A source
// that fails to import marks its asset Invalid; the others still reload.
func (e *Editor) ReloadChanged() (int, error) {
	var (
		errs   []error
		reload int
	)
	for _, h := range e.Changed() {
		meta, _ := e.store.Get(h)
		delete(e.digests, h)
		a, err := e.load(meta)
		if err != nil {
			e.invalid(meta, err)
			errs = append(errs, err)
			continue
		}
		e.loaded(a)
		reload++
		e.logger.Info("asset reloaded", log.Stringer("handle", h), log.String("path", meta.FilePath))
	}
	return reload, errors.Join(errs...)
}

// HandleForPath returns the handle registered for a source file.
func (e *Editor) HandleForPath(file string) (asset.Handle, bool) {
	file = asset.NormalizePath(file)
	h, ok := e.paths[file]
	if !ok {
		return asset.NullHandle, false
	}
	if m, err := e.store.Get(h); err != nil || m.FilePath != file {
		return asset.NullHandle, false
	}
	return h, true
}

// ImportAsset registers a source file under the asset directory and returns
// its handle. Importing a registered file returns the existing handle. The
// asset itself is loaded on first GetAsset.
func (e *Editor) ImportAsset(file string) (asset.Handle, error) {
	file = asset.NormalizePath(file)
	if h, ok := e.HandleForPath(file); ok {
		return h, nil
	}
	typ, ok := importer.Detect(file)
	if !ok {
		return asset.NullHandle, asset.NewError(asset.CodeUnknownTag, "no importer for "+file, asset.ErrUnknownTag)
	}
	if _, err := os.Stat(e.sourcePath(file)); err != nil {
		return asset.NullHandle, asset.IOError("import "+file, err)
	}

	m := asset.Metadata{Handle: asset.NewHandle(), Type: typ, FilePath: file}
	if err := e.store.Add(m); err != nil {
		return asset.NullHandle, err
	}
	e.paths[file] = m.Handle
	e.logger.Info("asset imported",
		log.Stringer("handle", m.Handle),
		log.Stringer("type", typ),
		log.String("path", file),
	)
	return m.Handle, nil
}

// AddAsset registers an in-memory scene or script under a default path in
// the asset directory. Other kinds come from source files; use ImportAsset
// or AddAssetAt.
func (e *Editor) AddAsset(a models.Asset) error {
	var file string
	switch v := a.(type) {
	case *models.Scene:
		file = path.Join("scenes", v.ID.String()+importer.SceneExtension)
	case *models.Script:
		file = path.Join("scripts", v.ClassName+".lua")
	default:
		return asset.NewError(asset.CodeNotFound, fmt.Sprintf("%s %s has no source path", a.Type(), a.Handle()), asset.ErrNotFound)
	}
	return e.AddAssetAt(file, a)
}

// AddAssetAt registers a as the asset stored at file and makes it resident.
// The file is written by SerializeAll for kinds that have a text form.
func (e *Editor) AddAssetAt(file string, a models.Asset) error {
	file = asset.NormalizePath(file)
	if _, taken := e.HandleForPath(file); taken {
		return asset.NewError(asset.CodeDuplicate, "path "+file+" is already registered", asset.ErrDuplicateHandle)
	}
	if err := e.store.Add(asset.Metadata{Handle: a.Handle(), Type: a.Type(), FilePath: file}); err != nil {
		return err
	}
	e.paths[file] = a.Handle()
	e.loaded(a)
	return nil
}

// RemoveAsset forgets h. The source file is left on disk.
func (e *Editor) RemoveAsset(h asset.Handle) error {
	m, err := e.store.Get(h)
	if err != nil {
		return notFound(h)
	}
	delete(e.paths, m.FilePath)
	delete(e.digests, h)
	e.removed(m)
	return nil
}

// SerializeAll writes every resident scene and script back to its source
// file, then saves the registry. A file that fails to write does not stop
// the others; the registry is still saved.
func (e *Editor) SerializeAll() error {
	var errs []error
	for _, t := range []asset.Type{asset.TypeScene, asset.TypeScript} {
		for _, h := range e.Loaded(t) {
			m, _ := e.store.Get(h)
			data, err := importer.Export(e.assets[h], e.sourcePath(m.FilePath))
			if err != nil {
				e.logger.Error("asset not saved", log.Stringer("handle", h), log.String("path", m.FilePath), log.Error(err))
				errs = append(errs, err)
				continue
			}
			e.digests[h] = xxhash.Sum64(data)
		}
	}
	if err := e.registry.Save(e.project.RegistryPath()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DeserializeAll drops every resident asset and reloads the registry. A
// project without a registry file yet starts empty.
func (e *Editor) DeserializeAll() error {
	e.reset()
	clear(e.digests)
	report, err := e.registry.Load(e.project.RegistryPath())
	if errors.Is(err, fs.ErrNotExist) {
		e.logger.Info("no asset registry yet", log.String("path", e.project.RegistryPath()))
		err = nil
	}
	e.reindex()
	if err != nil {
		return err
	}
	if report.Skipped > 0 {
		e.logger.Warn("registry entries skipped", log.Int("skipped", report.Skipped))
	}
	return nil
}

func (e *Editor) reindex() {
	clear(e.paths)
	for _, m := range e.store.All() {
		if m.FilePath != "" {
			e.paths[m.FilePath] = m.Handle
		}
	}
}

func (e *Editor) sourcePath(file string) string {
	return filepath.Join(e.project.AssetDirectory(), filepath.FromSlash(file))
}
