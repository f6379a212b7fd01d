// Package registry persists the metadata store as a YAML document that stays
// readable, diffable and editable by hand during authoring.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/pkg/fsutil"
	"github.com/zeusync/assetpack/pkg/generic"
)

type document struct {
	AssetRegistry []yaml.Node `yaml:"AssetRegistry"`
}

type entry struct {
	Handle   yaml.Node `yaml:"Handle"`
	FilePath string    `yaml:"FilePath"`
	Type     string    `yaml:"Type"`
}

type savedEntry struct {
	Handle   uint64 `yaml:"Handle"`
	FilePath string `yaml:"FilePath"`
	Type     string `yaml:"Type"`
}

type savedDocument struct {
	AssetRegistry []savedEntry `yaml:"AssetRegistry"`
}

// LoadReport counts the outcome of a Load.
type LoadReport struct {
	Loaded  int
	Skipped int
}

// Registry loads and saves a metadata store.
type Registry struct {
	store  *asset.Store
	logger log.Log
}

func New(store *asset.Store, logger log.Log) *Registry {
	return &Registry{
		store:  store,
		logger: logger.With(log.String("component", "registry")),
	}
}

func (r *Registry) Store() *asset.Store { return r.store }

// Load reads the registry at path into the store. Entries that fail to parse
// or collide with existing ones are logged and skipped.
func (r *Registry) Load(path string) (LoadReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadReport{}, asset.IOError("read registry "+path, err)
	}
	report, err := r.Decode(bytes.NewReader(data))
	if err != nil {
		return report, err
	}
	r.logger.Info("registry loaded",
		log.String("path", path),
		log.Int("loaded", report.Loaded),
		log.Int("skipped", report.Skipped),
	)
	return report, nil
}

// Decode reads a registry document from rd.
func (r *Registry) Decode(rd io.Reader) (LoadReport, error) {
	var (
		doc    document
		report LoadReport
	)
	if err := yaml.NewDecoder(rd).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return report, nil
		}
		return report, asset.NewError(asset.CodeParse, "decode registry document", err)
	}

	for i := range doc.AssetRegistry {
		node := &doc.AssetRegistry[i]
		m, err := parseEntry(node)
		if err == nil {
			err = r.store.Add(m)
		}
		if err != nil {
			report.Skipped++
			r.logger.Warn("skipping registry entry",
				log.Int("line", node.Line),
				log.Error(err),
			)
			continue
		}
		report.Loaded++
	}
	return report, nil
}

func parseEntry(node *yaml.Node) (asset.Metadata, error) {
	var e entry
	if err := node.Decode(&e); err != nil {
		return asset.Metadata{}, asset.NewError(asset.CodeParse, "malformed entry", err)
	}
	if e.Handle.Kind != yaml.ScalarNode {
		return asset.Metadata{}, asset.NewError(asset.CodeParse, "entry has no Handle", asset.ErrParse)
	}
	h, err := asset.ParseHandle(e.Handle.Value)
	if err != nil {
		return asset.Metadata{}, asset.NewError(asset.CodeParse, fmt.Sprintf("bad handle %q", e.Handle.Value), err)
	}
	typ, err := asset.ParseType(e.Type)
	if err != nil {
		return asset.Metadata{}, err
	}
	if e.FilePath == "" {
		return asset.Metadata{}, asset.NewError(asset.CodeParse, "entry "+h.String()+" has no FilePath", asset.ErrParse)
	}
	return asset.Metadata{Handle: h, Type: typ, FilePath: e.FilePath}, nil
}

// Save writes the store to path, replacing the previous file atomically.
func (r *Registry) Save(path string) error {
	buf := generic.Scratch.Get()
	defer generic.Scratch.Put(buf)
	if err := r.Encode(buf); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return asset.IOError("write registry "+path, err)
	}
	r.logger.Info("registry saved", log.String("path", path), log.Int("entries", r.store.Len()))
	return nil
}

// Encode writes one block per entry, ordered by handle. Load status is
// runtime state and is not persisted.
func (r *Registry) Encode(w io.Writer) error {
	all := r.store.All()
	doc := savedDocument{AssetRegistry: make([]savedEntry, 0, len(all))}
	for _, m := range all {
		doc.AssetRegistry = append(doc.AssetRegistry, savedEntry{
			Handle:   uint64(m.Handle),
			FilePath: m.FilePath,
			Type:     m.Type.String(),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return asset.NewError(asset.CodeIO, "encode registry", err)
	}
	return enc.Close()
}
