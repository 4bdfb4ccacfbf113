package services

import (
	"context"
	"errors"

	"github.com/tradeboard/backend/src/models"
)

// Define common service errors
var (
	// ErrCapitalUnavailable is returned by GetCapital when neither an account
	// snapshot nor the MT4_DASHBOARD_BALANCE fallback is available.
	ErrCapitalUnavailable = errors.New("capital unavailable")
)

// Payload is a decoded request body. Values keep their JSON types
// (json.Number for numbers) or are raw strings for form posts.
type Payload map[string]any

// TradeService is the trade ledger: idempotent adds from the agent, partial
// updates from both the dashboard and the agent, and the ledger read.
type TradeService interface {
	// AddTrade stores the trade described by payload unless its ticket is
	// already known. created is false for a pre-existing ticket.
	AddTrade(ctx context.Context, payload Payload) (ticket int64, created bool, err error)
	// UpdateTrade applies updates to an existing trade, all or nothing.
	// It returns the stored record and the names of the fields written.
	UpdateTrade(ctx context.Context, ticket int64, updates Payload) (*models.Trade, []string, error)
	GetAll(ctx context.Context) (*models.TradeBook, error)
	GetCapital(ctx context.Context) (float64, error)
}

// CloseQueueService drives the pending-close handshake with the trading agent.
type CloseQueueService interface {
	RequestClose(ctx context.Context, ticket int64) error
	// FilterPending returns the pending tickets that the agent still holds
	// open, in the order the agent listed them.
	FilterPending(ctx context.Context, openTickets []int64) ([]int64, error)
}

// CommentService manages the one-per-trade annotations.
type CommentService interface {
	GetAll(ctx context.Context) (map[string]models.Comment, error)
	Add(ctx context.Context, ticket int64, payload Payload) (*models.Comment, error)
	Edit(ctx context.Context, ticket int64, payload Payload) (*models.Comment, error)
	Delete(ctx context.Context, ticket int64) (*models.Comment, error)
}

// ConfigService reads and patches the risk-management configuration.
type ConfigService interface {
	Get(ctx context.Context) (models.DashboardConfig, error)
	// Patch applies one of the two accepted payload shapes and returns what
	// changed: the whole section, or the closeBloc_allTrade flag.
	Patch(ctx context.Context, payload Payload) (any, error)
}

// AccountService stores the broker account snapshot.
type AccountService interface {
	Update(ctx context.Context, payload Payload) (*models.Account, error)
}
