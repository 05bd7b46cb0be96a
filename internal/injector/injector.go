//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
)

// InitializeApp wires a director process from the config file at path. An
// empty path uses the defaults.
func InitializeApp(path string) (*App, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
