//go:build wireinject
// +build wireinject

package main

import (
	"github.com/amaumene/rankboard/internal/api"
	"github.com/amaumene/rankboard/internal/config"
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/amaumene/rankboard/internal/scheduler"
	"github.com/amaumene/rankboard/internal/services/remote"
	"github.com/google/wire"
)

var catalogSet = wire.NewSet(
	provideLogger,
	provideTermList,
	provideAdapters,
	controllers.NewDispatcher,
)

var storeSet = wire.NewSet(
	provideDatabase,
	provideRemote,
	wire.Bind(new(controllers.RemoteStore), new(*remote.Store)),
	controllers.NewSessionManager,
)

func initializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		catalogSet,
		storeSet,
		provideTracer,
		wire.Bind(new(controllers.ItemSearcher), new(*controllers.Dispatcher)),
		controllers.NewWatchedMatcher,
		scheduler.NewScheduler,
		api.NewServer,
		newApp,
	)
	return nil, nil, nil
}

func initializeCatalog(cfg *config.Config) (*controllers.Dispatcher, error) {
	wire.Build(catalogSet)
	return nil, nil
}

func initializeImporter(cfg *config.Config) (*Importer, func(), error) {
	wire.Build(
		catalogSet,
		storeSet,
		wire.Bind(new(controllers.ItemSearcher), new(*controllers.Dispatcher)),
		controllers.NewWatchedMatcher,
		newImporter,
	)
	return nil, nil, nil
}
