package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/asset/registry"
	"github.com/zeusync/assetpack/internal/core/events/bus"
	"github.com/zeusync/assetpack/internal/core/manager"
	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/internal/core/project"
)

// ProjectPath is the project file an injector opens.
type ProjectPath string

func ProvideProject(path ProjectPath) (*project.Project, error) {
	return project.Open(string(path))
}

// ProvideLogger builds the process logger at the project's configured level.
func ProvideLogger(p *project.Project) *log.Logger {
	return log.New(log.ParseLevel(p.LogLevel))
}

// ProvideEventBus builds the asset event bus with delivery logging.
func ProvideEventBus(logger log.Log) bus.EventBus {
	b := bus.New()
	b.AddObserver(bus.NewLogObserver(logger))
	return b
}

func ProvideRuntime(p *project.Project, events bus.EventBus, logger log.Log) *manager.Runtime {
	return manager.NewRuntime(p, p.PackFile(), events, logger)
}

var baseSet = wire.NewSet(
	ProvideProject,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEventBus,
)

// EditorSet wires an authoring manager over the project's registry.
var EditorSet = wire.NewSet(
	baseSet,
	asset.NewStore,
	registry.New,
	manager.NewEditor,
)

// RuntimeSet wires a distribution manager over the project's pack file.
var RuntimeSet = wire.NewSet(
	baseSet,
	ProvideRuntime,
)
