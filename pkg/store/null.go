package store

import (
	"context"
	"fmt"
)

// NullStore discards all runs.
type NullStore struct{}

// NewNullStore returns a store that records nothing.
func NewNullStore() Store { return NullStore{} }

// Save implements Store.
func (NullStore) Save(context.Context, Run) error { return nil }

// Get implements Store.
func (NullStore) Get(_ context.Context, id string) (Run, error) {
	return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List implements Store.
func (NullStore) List(context.Context, int) ([]Run, error) { return nil, nil }

// Close implements Store.
func (NullStore) Close() error { return nil }
