//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/assetpack/internal/core/manager"
)

func InitializeEditor(path ProjectPath) (*manager.Editor, error) {
	wire.Build(EditorSet)
	return nil, nil
}

func InitializeRuntime(path ProjectPath) (*manager.Runtime, error) {
	wire.Build(RuntimeSet)
	return nil, nil
}
