//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject

package app

import (
	"quorum/internal/config"
)

func buildAppWithWire(cfg *config.Config) (*App, error) {
	builder := provideBuilder(cfg)
	app, err := provideApp(builder)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func provideBuilder(cfg *config.Config) *Builder {
	return NewBuilder(cfg)
}

func provideApp(b *Builder) (*App, error) {
	return b.Build()
}
