package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/models"
)

// SyncReport counts what Sync copied.
type SyncReport struct {
	TradesCreated   int  `json:"trades_created"`
	TradesUpdated   int  `json:"trades_updated"`
	AccountCopied   bool `json:"account_copied"`
	CommentsCopied  int  `json:"comments_copied"`
	CommentsSkipped int  `json:"comments_skipped"`
	PendingCopied   int  `json:"pending_copied"`
}

// Sync copies the whole dashboard state of src into dst so that both backends
// answer every read the same way afterwards. Trades missing on dst are
// added, existing ones are overwritten field by field (creation stamp kept).
// Comments whose trade is unknown are skipped, as the live API would reject them.
func Sync(ctx context.Context, src, dst Backend) (SyncReport, error) {
	var report SyncReport
	log := logger.FromContext(ctx)

	trades, err := src.GetTrades(ctx)
	if err != nil {
		return report, fmt.Errorf("read trades from %s: %w", src.Kind(), err)
	}
	for _, t := range trades {
		created, err := dst.AddTrade(ctx, t)
		if err != nil {
			return report, fmt.Errorf("copy trade %d: %w", t.Ticket, err)
		}
		if created {
			report.TradesCreated++
			continue
		}
		snapshot := t
		_, err = dst.UpdateTrade(ctx, t.Ticket, func(cur *models.Trade) (bool, error) {
			createdAt := cur.CreatedAt
			*cur = snapshot
			cur.CreatedAt = createdAt
			return false, nil
		})
		if err != nil {
			return report, fmt.Errorf("overwrite trade %d: %w", t.Ticket, err)
		}
		report.TradesUpdated++
	}

	account, err := src.GetAccount(ctx)
	if err != nil {
		return report, fmt.Errorf("read account from %s: %w", src.Kind(), err)
	}
	if account != nil {
		if err := dst.UpsertAccount(ctx, *account); err != nil {
			return report, fmt.Errorf("copy account: %w", err)
		}
		report.AccountCopied = true
	}

	cfg, err := src.GetConfig(ctx)
	if err != nil {
		return report, fmt.Errorf("read config from %s: %w", src.Kind(), err)
	}
	if _, err := dst.PatchConfig(ctx, func(c *models.DashboardConfig) { *c = cfg }); err != nil {
		return report, fmt.Errorf("copy config: %w", err)
	}

	comments, err := src.GetComments(ctx)
	if err != nil {
		return report, fmt.Errorf("read comments from %s: %w", src.Kind(), err)
	}
	keys := make([]string, 0, len(comments))
	for key := range comments {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ticket, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Warn("Skipping comment with non-numeric ticket", "ticket", key)
			report.CommentsSkipped++
			continue
		}
		if err := dst.UpsertComment(ctx, ticket, comments[key]); err != nil {
			if errors.Is(err, ErrNotFound) {
				log.Warn("Skipping comment of unknown trade", "ticket", ticket)
				report.CommentsSkipped++
				continue
			}
			return report, fmt.Errorf("copy comment %d: %w", ticket, err)
		}
		report.CommentsCopied++
	}

	pending, err := src.PendingCloses(ctx)
	if err != nil {
		return report, fmt.Errorf("read pending closes from %s: %w", src.Kind(), err)
	}
	for _, ticket := range pending {
		if err := dst.RequestClose(ctx, ticket); err != nil {
			if errors.Is(err, ErrNotFound) {
				log.Warn("Skipping pending close of unknown trade", "ticket", ticket)
				continue
			}
			return report, fmt.Errorf("copy pending close %d: %w", ticket, err)
		}
		report.PendingCopied++
	}

	log.Info("Backend sync finished", "from", src.Kind(), "to", dst.Kind(),
		"tradesCreated", report.TradesCreated, "tradesUpdated", report.TradesUpdated,
		"commentsCopied", report.CommentsCopied, "pendingCopied", report.PendingCopied)
	return report, nil
}
