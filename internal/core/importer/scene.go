package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/pkg/generic"
)

type sceneDocument struct {
	Scene      string           `yaml:"Scene"`
	StepFrames uint64           `yaml:"StepFrames,omitempty"`
	Entities   []entityDocument `yaml:"Entities"`
}

type entityDocument struct {
	Entity           asset.Handle             `yaml:"Entity"`
	Tag              *models.Tag              `yaml:"Tag,omitempty"`
	Transform        *models.Transform        `yaml:"Transform,omitempty"`
	SpriteRenderer   *models.SpriteRenderer   `yaml:"SpriteRenderer,omitempty"`
	CircleRenderer   *models.CircleRenderer   `yaml:"CircleRenderer,omitempty"`
	Camera           *models.Camera           `yaml:"Camera,omitempty"`
	Rigidbody2D      *models.Rigidbody2D      `yaml:"Rigidbody2D,omitempty"`
	BoxCollider2D    *models.BoxCollider2D    `yaml:"BoxCollider2D,omitempty"`
	CircleCollider2D *models.CircleCollider2D `yaml:"CircleCollider2D,omitempty"`
	Text             *models.Text             `yaml:"Text,omitempty"`
	Script           *models.ScriptInstance   `yaml:"Script,omitempty"`
	AudioSource      *models.AudioSource      `yaml:"AudioSource,omitempty"`
}

func (d *entityDocument) components() []models.Component {
	var out []models.Component
	add := func(ok bool, c models.Component) {
		if ok {
			out = append(out, c)
		}
	}
	add(d.Tag != nil, d.Tag)
	add(d.Transform != nil, d.Transform)
	add(d.SpriteRenderer != nil, d.SpriteRenderer)
	add(d.CircleRenderer != nil, d.CircleRenderer)
	add(d.Camera != nil, d.Camera)
	add(d.Rigidbody2D != nil, d.Rigidbody2D)
	add(d.BoxCollider2D != nil, d.BoxCollider2D)
	add(d.CircleCollider2D != nil, d.CircleCollider2D)
	add(d.Text != nil, d.Text)
	add(d.Script != nil, d.Script)
	add(d.AudioSource != nil, d.AudioSource)
	return out
}

func newEntityDocument(e *models.Entity) entityDocument {
	d := entityDocument{Entity: e.Handle()}
	for _, c := range e.Components() {
		switch v := c.(type) {
		case *models.Tag:
			d.Tag = v
		case *models.Transform:
			d.Transform = v
		case *models.SpriteRenderer:
			d.SpriteRenderer = v
		case *models.CircleRenderer:
			d.CircleRenderer = v
		case *models.Camera:
			d.Camera = v
		case *models.Rigidbody2D:
			d.Rigidbody2D = v
		case *models.BoxCollider2D:
			d.BoxCollider2D = v
		case *models.CircleCollider2D:
			d.CircleCollider2D = v
		case *models.Text:
			d.Text = v
		case *models.ScriptInstance:
			d.Script = v
		case *models.AudioSource:
			d.AudioSource = v
		}
	}
	return d
}

// DecodeScene parses a scene text file. Unknown component names are an
// error. Entities without a handle get a fresh one.
func DecodeScene(h asset.Handle, data []byte) (*models.Scene, error) {
	var doc sceneDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, parseError("decode scene document", err)
	}

	scene := models.NewScene(h, doc.Scene)
	scene.StepFrames = doc.StepFrames
	for i := range doc.Entities {
		d := &doc.Entities[i]
		if d.Entity.IsNull() {
			d.Entity = asset.NewHandle()
		}
		if _, dup := scene.Entity(d.Entity); dup {
			return nil, parseError(fmt.Sprintf("entity %s appears twice", d.Entity), nil)
		}
		e := models.NewEntity(d.Entity)
		for _, c := range d.components() {
			e.Set(c)
		}
		scene.AddEntity(e)
	}
	return scene, nil
}

// EncodeScene renders scene as a text file with entities ordered by handle.
func EncodeScene(scene *models.Scene) ([]byte, error) {
	doc := sceneDocument{Scene: scene.Name, StepFrames: scene.StepFrames}
	for _, e := range scene.Entities() {
		doc.Entities = append(doc.Entities, newEntityDocument(e))
	}

	buf := generic.Scratch.Get()
	defer generic.Scratch.Put(buf)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, asset.NewError(asset.CodeIO, "encode scene "+scene.ID.String(), err)
	}
	if err := enc.Close(); err != nil {
		return nil, asset.NewError(asset.CodeIO, "encode scene "+scene.ID.String(), err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
