package project

import (
	"path/filepath"

	"github.com/zeusync/assetpack/internal/core/asset"
)

// Project is an opened project file plus the session's active scene. It
// satisfies the pack's active-scene tracker.
type Project struct {
	Config
	dir    string
	active asset.Handle
}

// Open loads and validates the project file at path. The active scene starts
// as the configured start scene.
func Open(path string) (*Project, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return New(*cfg, filepath.Dir(path)), nil
}

// New wraps cfg for a project rooted at dir.
func New(cfg Config, dir string) *Project {
	return &Project{Config: cfg, dir: dir, active: cfg.StartScene}
}

func (p *Project) Dir() string { return p.dir }

func (p *Project) AssetDirectory() string { return p.resolve(p.AssetDir) }

func (p *Project) RegistryPath() string { return p.resolve(p.AssetRegistry) }

func (p *Project) PackFile() string { return p.resolve(p.PackPath) }

func (p *Project) resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.dir, filepath.FromSlash(rel))
}

func (p *Project) ActiveScene() asset.Handle { return p.active }

func (p *Project) SetActiveScene(h asset.Handle) { p.active = h }
