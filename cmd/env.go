package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ladleworks/foodcost-cli/internal/catalog"
	"github.com/ladleworks/foodcost-cli/internal/convert"
	"github.com/ladleworks/foodcost-cli/internal/identity"
	"github.com/ladleworks/foodcost-cli/internal/store"
)

// engine bundles the store and the resolvers every command works with.
type engine struct {
	store    store.Store
	catalog  *catalog.Catalog
	identity *identity.Resolver
	convert  *convert.Resolver
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		var poolCfg *store.PoolConfig
		if cfg.Store.MaxConns > 0 || cfg.Store.MinConns > 0 {
			poolCfg = &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			}
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEngine validates config for the given command mode and wires the
// resolution engines over the store and the conversion catalog.
func initEngine(ctx context.Context, mode string) (*engine, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	cat := catalog.Load(cfg.Catalog.Path)

	return &engine{
		store:    st,
		catalog:  cat,
		identity: identity.NewResolver(st, st),
		convert:  convert.NewResolver(st, cat),
	}, nil
}

func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		zap.L().Warn("closing store", zap.Error(err))
	}
}
