package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/importer"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/internal/core/project"
	"github.com/zeusync/assetpack/internal/injector"
)

// newProject writes a project with one texture and one scene that uses it.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := project.DefaultConfig("demo")
	cfg.LogLevel = "none"
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, cfg.Save(path))

	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	var pix bytes.Buffer
	require.NoError(t, png.Encode(&pix, img))
	writeAsset(t, dir, "hero.png", pix.Bytes())

	scene := models.NewScene(asset.NewHandle(), "Level")
	scene.CreateEntity("Player").Set(models.NewTransform())
	data, err := importer.EncodeScene(scene)
	require.NoError(t, err)
	writeAsset(t, dir, "level"+importer.SceneExtension, data)
	return path
}

func writeAsset(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	full := filepath.Join(dir, "assets", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { projectFile = "project.yaml" })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_ImportBuildInspectVerify(t *testing.T) {
	path := newProject(t)

	out, err := run(t, "--project", path, "import", "hero.png", "level.zscene")
	require.NoError(t, err)
	assert.Contains(t, out, "Texture2D hero.png")
	assert.Contains(t, out, "Scene level.zscene")
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "AssetRegistry.yaml"))

	useTexture(t, path)

	out, err = run(t, "--project", path, "build")
	require.NoError(t, err)
	assert.Contains(t, out, `"Level": 2 entities, 1 assets`)

	packFile := filepath.Join(filepath.Dir(path), "build", "demo.zsp")
	out, err = run(t, "--project", path, "inspect", "--entities", packFile)
	require.NoError(t, err)
	assert.Contains(t, out, "magic ZSP version 1")
	assert.Contains(t, out, `"Level"`)
	assert.Contains(t, out, "entity ")
	assert.NotContains(t, out, "broken")

	out, err = run(t, "--project", path, "verify", "--assets")
	require.NoError(t, err)
	assert.Contains(t, out, "1 scenes decoded, 0 failures")
}

// useTexture adds an entity drawing hero.png to the imported scene.
func useTexture(t *testing.T, path string) {
	t.Helper()
	editor, err := injector.InitializeEditor(injector.ProjectPath(path))
	require.NoError(t, err)
	require.NoError(t, editor.DeserializeAll())

	tex, ok := editor.HandleForPath("hero.png")
	require.True(t, ok)
	sh, ok := editor.HandleForPath("level" + importer.SceneExtension)
	require.True(t, ok)
	a, ok := editor.GetAsset(sh)
	require.True(t, ok)
	a.(*models.Scene).CreateEntity("Hero").Set(&models.SpriteRenderer{Texture: tex, Color: models.White, TilingFactor: 1})
	require.NoError(t, editor.SerializeAll())
}

func TestCLI_VerifyCorruptPack(t *testing.T) {
	path := newProject(t)
	packFile := filepath.Join(filepath.Dir(path), "build", "demo.zsp")
	require.NoError(t, os.MkdirAll(filepath.Dir(packFile), 0o755))
	require.NoError(t, os.WriteFile(packFile, []byte("XYZ-not-a-pack-file-at-all-padding"), 0o644))

	_, err := run(t, "--project", path, "verify")
	require.Error(t, err)
	assert.ErrorIs(t, err, asset.ErrParse)
	assert.Equal(t, exitStructural, exitCode(err))
}

func TestCLI_BuildRejectsBadHandle(t *testing.T) {
	path := newProject(t)
	_, err := run(t, "--project", path, "build", "--scene", "not-a-handle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--scene")
}

func TestCLI_ImportUnknownExtension(t *testing.T) {
	path := newProject(t)
	writeAsset(t, filepath.Dir(path), "notes.txt", []byte("hi"))
	_, err := run(t, "--project", path, "import", "notes.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, asset.ErrUnknownTag)
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit status 2", (&ExitError{Code: 2}).Error())
	inner := assert.AnError
	e := &ExitError{Code: 1, Err: inner}
	assert.ErrorIs(t, e, inner)

	assert.Equal(t, exitDecode, exitCode(&ExitError{Code: exitDecode}))
	assert.Equal(t, exitFailure, exitCode(assert.AnError))
	assert.Equal(t, exitFailure, exitCode(asset.NewError(asset.CodeNotFound, "scene", asset.ErrNotFound)))
	assert.Equal(t, exitStructural, exitCode(asset.IOError("open pack", assert.AnError)))
}
