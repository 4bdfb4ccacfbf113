// Package storage holds the two interchangeable persistence backends of the
// dashboard: JSON documents on disk and a SQLite schema.
package storage

import (
	"context"
	"errors"

	"github.com/tradeboard/backend/src/models"
)

var (
	// ErrNotFound is returned when a referenced trade or comment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt is returned when a stored JSON document cannot be decoded.
	ErrCorrupt = errors.New("stored document is malformed")
)

// TradeMutation edits a loaded trade inside the backend's write scope. It
// reports whether the edit closes the trade, in which case the backend
// confirms the close on the pending-close queue in the same scope.
type TradeMutation func(t *models.Trade) (confirmClose bool, err error)

// Backend is the storage capability every dashboard component is built on.
// Implementations must run each read-then-write method in a single
// transaction or lock scope, and must not apply any part of a write whose
// mutation returns an error.
type Backend interface {
	// Kind names the implementation ("sqlite" or "file").
	Kind() string
	// DateSeparator is the separator used when rendering dates read from this backend.
	DateSeparator() string

	GetTrades(ctx context.Context) ([]models.Trade, error)
	GetTrade(ctx context.Context, ticket int64) (*models.Trade, error)
	// AddTrade inserts t unless a trade with the same ticket exists; created
	// is false in that case and nothing is written.
	AddTrade(ctx context.Context, t models.Trade) (created bool, err error)
	// UpdateTrade applies mutate to the stored trade. A non-nil trade returned
	// alongside an error means the trade itself was saved but a follow-up
	// write (the close confirmation) failed.
	UpdateTrade(ctx context.Context, ticket int64, mutate TradeMutation) (*models.Trade, error)

	// GetAccount returns nil, nil when no snapshot has been stored.
	GetAccount(ctx context.Context) (*models.Account, error)
	UpsertAccount(ctx context.Context, a models.Account) error

	GetConfig(ctx context.Context) (models.DashboardConfig, error)
	PatchConfig(ctx context.Context, patch func(c *models.DashboardConfig)) (models.DashboardConfig, error)

	GetComments(ctx context.Context) (map[string]models.Comment, error)
	// UpsertComment replaces the comment of ticket, failing with ErrNotFound
	// when the trade does not exist.
	UpsertComment(ctx context.Context, ticket int64, c models.Comment) error
	EditComment(ctx context.Context, ticket int64, edit func(c *models.Comment)) (*models.Comment, error)
	DeleteComment(ctx context.Context, ticket int64) (*models.Comment, error)

	// RequestClose replaces any queue entry of ticket with a pending one.
	RequestClose(ctx context.Context, ticket int64) error
	// ConfirmClose marks the queue entry of ticket as finished, creating it if needed.
	ConfirmClose(ctx context.Context, ticket int64) error
	// PendingCloses lists the tickets whose entry is still pending.
	PendingCloses(ctx context.Context) ([]int64, error)

	Close() error
}
