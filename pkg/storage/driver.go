// Package storage
package storage

import (
	"context"

	"github.com/NICxKMS/chatcore/pkg/catalog"
)

// Driver defines the interface for persisting the model catalog in a
// storage backend. Drivers keep the registry durable across restarts so
// a cold start does not depend on every upstream provider being up.
type Driver interface {
	// PutModel upserts a model. Returns true if the model was newly
	// inserted, false if an existing row was updated.
	PutModel(ctx context.Context, model catalog.Model) (bool, error)

	// GetModel retrieves a model by provider and ID.
	GetModel(ctx context.Context, provider, id string) (catalog.Model, error)

	// ListModels returns all models for a provider, sorted by ID.
	ListModels(ctx context.Context, provider string) ([]catalog.Model, error)

	// ListProviders returns all providers with at least one model, sorted.
	ListProviders(ctx context.Context) ([]string, error)

	// DeleteModel removes a model by provider and ID.
	DeleteModel(ctx context.Context, provider, id string) error

	// Close closes the store and releases any resources.
	Close() error
}
