package tui

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/envvar"
)

// storeSource serves the console straight from the local config file.
type storeSource struct {
	store *config.Store
}

// NewStoreSource returns a Source backed by store.
func NewStoreSource(store *config.Store) Source {
	return storeSource{store: store}
}

func (s storeSource) Environments(ctx context.Context) ([]envvar.Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListEnvironments(), nil
}

func (s storeSource) Variables(ctx context.Context, envID string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetVariables(envID)
}

func (s storeSource) SaveVariables(ctx context.Context, envID string, vars map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.store.ReadOnly() {
		return config.ErrReadOnly
	}
	return errors.Wrapf(s.store.SetVariables(envID, vars), "save %s", envID)
}
