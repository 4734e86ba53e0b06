// Package instrument provides the read-only registry the execution
// engine consults, plus the out-of-band catalog sync that populates it.
package instrument

import (
	"context"
	"errors"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/store"
)

// Registry resolves symbols and ids to instruments. The engine only
// reads through it; population happens via Syncer.
type Registry struct {
	store *store.Store
}

func NewRegistry(s *store.Store) *Registry {
	return &Registry{store: s}
}

// Resolve accepts either a symbol or an instrument id.
func (r *Registry) Resolve(ctx context.Context, symbolOrID string) (broker.Instrument, error) {
	in, err := r.store.GetInstrumentBySymbol(ctx, symbolOrID)
	if err == nil {
		return in, nil
	}
	if !errors.Is(err, broker.ErrNotFound) {
		return broker.Instrument{}, err
	}
	return r.store.GetInstrumentByID(ctx, symbolOrID)
}

// TypeOf reports the instrument type for a symbol; it satisfies
// pricing.TypeResolver.
func (r *Registry) TypeOf(ctx context.Context, symbol string) (broker.InstrumentType, error) {
	in, err := r.Resolve(ctx, symbol)
	if err != nil {
		return "", err
	}
	return in.Type, nil
}

// List returns the catalog, optionally restricted to active
// instruments.
func (r *Registry) List(ctx context.Context, activeOnly bool) ([]broker.Instrument, error) {
	return r.store.ListInstruments(ctx, activeOnly)
}
