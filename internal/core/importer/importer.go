// Package importer turns standalone authoring files into assets and writes
// scenes and scripts back out. Paths in metadata are relative to the
// project's asset directory.
package importer

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/pkg/fsutil"
)

// SceneExtension is the file extension of scene text files.
const SceneExtension = ".zscene"

var extensions = map[string]asset.Type{
	SceneExtension: asset.TypeScene,
	".png":         asset.TypeTexture2D,
	".jpg":         asset.TypeTexture2D,
	".jpeg":        asset.TypeTexture2D,
	".ttf":         asset.TypeFont,
	".otf":         asset.TypeFont,
	".wav":         asset.TypeAudio,
	".ogg":         asset.TypeAudio,
	".mp3":         asset.TypeAudio,
	".lua":         asset.TypeScript,
	".js":          asset.TypeScript,
	".py":          asset.TypeScript,
}

// Detect infers the asset type of a source file from its extension.
func Detect(file string) (asset.Type, bool) {
	t, ok := extensions[strings.ToLower(path.Ext(asset.NormalizePath(file)))]
	return t, ok
}

// Import reads the source file meta describes and builds its asset. The
// asset carries meta.Handle.
func Import(meta asset.Metadata, root string) (models.Asset, error) {
	if meta.Handle.IsNull() {
		return nil, asset.NewError(asset.CodeNullHandle, "import "+meta.FilePath, asset.ErrNullHandle)
	}
	data, err := ReadSource(meta, root)
	if err != nil {
		return nil, err
	}
	return Decode(meta, data)
}

// ReadSource returns the bytes of the source file meta describes.
func ReadSource(meta asset.Metadata, root string) ([]byte, error) {
	file := filepath.Join(root, filepath.FromSlash(meta.FilePath))
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, asset.IOError("read "+meta.Type.String()+" source "+meta.FilePath, err)
	}
	return data, nil
}

// Decode builds the asset meta describes from the contents of its source
// file.
func Decode(meta asset.Metadata, data []byte) (models.Asset, error) {
	if meta.Handle.IsNull() {
		return nil, asset.NewError(asset.CodeNullHandle, "import "+meta.FilePath, asset.ErrNullHandle)
	}

	var (
		a   models.Asset
		err error
	)
	switch meta.Type {
	case asset.TypeScene:
		a, err = DecodeScene(meta.Handle, data)
	case asset.TypeTexture2D:
		a, err = decodeTexture(meta.Handle, data)
	case asset.TypeFont:
		a, err = decodeFont(meta.Handle, baseName(meta.FilePath), data)
	case asset.TypeAudio:
		a, err = decodeAudio(meta.Handle, meta.FilePath, data)
	case asset.TypeScript:
		a = &models.Script{ID: meta.Handle, ClassName: baseName(meta.FilePath), Source: string(data)}
	default:
		return nil, asset.NewError(asset.CodeUnknownTag, "no importer for "+meta.Type.String(), asset.ErrUnknownTag).
			WithContext("path", meta.FilePath)
	}
	if err != nil {
		return nil, asset.WrapError(err, "import "+meta.FilePath)
	}
	return a, nil
}

// Export writes a back to file and returns the bytes written. Only scenes
// and scripts have a text form; other kinds are owned by external tools.
func Export(a models.Asset, file string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch v := a.(type) {
	case *models.Scene:
		data, err = EncodeScene(v)
		if err != nil {
			return nil, err
		}
	case *models.Script:
		data = []byte(v.Source)
	default:
		return nil, asset.NewError(asset.CodeUnknownTag, "cannot export "+a.Type().String()+" "+a.Handle().String(), asset.ErrUnknownTag)
	}
	if err = fsutil.WriteFileAtomic(file, data); err != nil {
		return nil, asset.IOError("write "+file, err)
	}
	return data, nil
}

func baseName(file string) string {
	base := path.Base(asset.NormalizePath(file))
	return strings.TrimSuffix(base, path.Ext(base))
}

func parseError(message string, cause error) *asset.Error {
	return asset.NewError(asset.CodeParse, message, cause)
}
