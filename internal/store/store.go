// Package store provides persistence for user-owned assistant settings.
package store

import (
	"context"

	"github.com/mkorolev/callcue/internal/domain"
)

// Repository defines the interface for persisting assistant settings.
// Conversations are intentionally not persisted; only the configuration
// survives restarts.
type Repository interface {
	// GetSettings retrieves the saved settings, or the defaults when
	// nothing has been saved yet.
	GetSettings(ctx context.Context) (domain.Settings, error)

	// SaveSettings replaces the saved settings.
	SaveSettings(ctx context.Context, settings domain.Settings) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
