package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/models"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/internal/core/pack"
	"github.com/zeusync/assetpack/internal/core/project"
	"github.com/zeusync/assetpack/internal/core/serialization"
)

// BuildPack assembles a pack from authoring assets. Resident assets whose
// source file changed on disk are reloaded first. Each scene is loaded
// through the editor, entity records are encoded in parallel, then every
// scene is attached with the assets it references. An empty scenes list
// builds every scene in the registry. Unresolvable references are logged and
// left out; any other failure aborts the build.
func BuildPack(ctx context.Context, editor *Editor, proj *project.Project, scenes []asset.Handle) (*pack.Pack, error) {
	logger := editor.logger.With(log.String("stage", "build"))
	if len(scenes) == 0 {
		for _, m := range editor.Store().OfType(asset.TypeScene) {
			scenes = append(scenes, m.Handle)
		}
	}

	if n, err := editor.ReloadChanged(); err != nil {
		return nil, err
	} else if n > 0 {
		logger.Info("changed sources reloaded", log.Int("assets", n))
	}

	objs := make([]*models.Scene, 0, len(scenes))
	for _, h := range scenes {
		a, ok := editor.GetAsset(h)
		if !ok {
			return nil, asset.NewError(asset.CodeNotFound, "scene "+h.String()+" could not be loaded", asset.ErrNotFound)
		}
		scene, ok := a.(*models.Scene)
		if !ok {
			return nil, fmt.Errorf("asset %s is a %s, not a scene", h, a.Type())
		}
		objs = append(objs, scene)
	}

	records, err := serialization.SerializeScenes(ctx, objs, proj.Workers)
	if err != nil {
		return nil, err
	}

	prev := proj.ActiveScene()
	defer proj.SetActiveScene(prev)

	p := pack.New(proj, logger)
	for i, scene := range objs {
		err = serialization.AttachScene(p, proj, scene, records[i], editor)
		switch {
		case errors.Is(err, asset.ErrNotFound):
			logger.Warn("scene references unavailable assets",
				log.Stringer("scene", scene.ID),
				log.String("name", scene.Name),
				log.Error(err),
			)
		case err != nil:
			p.Release()
			return nil, err
		}
	}

	logger.Info("pack built", log.Int("scenes", len(objs)))
	return p, nil
}
