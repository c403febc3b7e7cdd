//go:build wireinject

package app

import (
	"github.com/google/wire"

	"quorum/internal/config"
)

func buildAppWithWire(cfg *config.Config) (*App, error) {
	wire.Build(
		provideBuilder,
		provideApp,
	)
	return nil, nil
}
