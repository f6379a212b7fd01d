// Package project describes an authoring project on disk and tracks which
// scene is active.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/pkg/fsutil"
	"github.com/zeusync/assetpack/pkg/generic"
)

// Config is the project file. Paths are relative to the directory holding it.
type Config struct {
	Name          string       `json:"name" yaml:"name"`
	StartScene    asset.Handle `json:"start_scene,omitempty" yaml:"start_scene,omitempty"`
	AssetDir      string       `json:"asset_directory" yaml:"asset_directory"`
	AssetRegistry string       `json:"asset_registry" yaml:"asset_registry"`
	PackPath      string       `json:"pack_path" yaml:"pack_path"`
	LogLevel      string       `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	// Workers bounds parallel scene encoding; 0 means one per CPU.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// DefaultConfig returns the layout new projects start with.
func DefaultConfig(name string) Config {
	return Config{
		Name:          name,
		AssetDir:      "assets",
		AssetRegistry: "AssetRegistry.yaml",
		PackPath:      "build/" + name + ".zsp",
		LogLevel:      "info",
	}
}

// Validate reports every missing or malformed field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.AssetDir == "" {
		errs = append(errs, errors.New("asset_directory is required"))
	}
	if c.AssetRegistry == "" {
		errs = append(errs, errors.New("asset_registry is required"))
	}
	if c.PackPath == "" {
		errs = append(errs, errors.New("pack_path is required"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "warning", "error", "fatal", "none", "off":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return asset.NewError(asset.CodeParse, "invalid project config", errors.Join(errs...))
	}
	return nil
}

// LoadYAML reads a config, filling unset paths from DefaultConfig.
func LoadYAML(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, asset.NewError(asset.CodeParse, "decode project config", err)
	}
	c.applyDefaults()
	return &c, nil
}

// LoadJSON reads a config written as JSON.
func LoadJSON(r io.Reader) (*Config, error) {
	var c Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, asset.NewError(asset.CodeParse, "decode project config", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig(c.Name)
	if c.AssetDir == "" {
		c.AssetDir = d.AssetDir
	}
	if c.AssetRegistry == "" {
		c.AssetRegistry = d.AssetRegistry
	}
	if c.PackPath == "" && c.Name != "" {
		c.PackPath = d.PackPath
	}
}

// Save writes c to path, as JSON when path ends in .json and as YAML
// otherwise.
func (c Config) Save(path string) error {
	buf := generic.Scratch.Get()
	defer generic.Scratch.Put(buf)
	if err := c.encode(buf, isJSON(path)); err != nil {
		return asset.NewError(asset.CodeIO, "encode project config", err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return asset.IOError("write project "+path, err)
	}
	return nil
}

func (c Config) encode(w io.Writer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

func readConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, asset.IOError("open project "+path, err)
	}
	defer f.Close()
	if isJSON(path) {
		return LoadJSON(f)
	}
	return LoadYAML(f)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
