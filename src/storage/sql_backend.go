package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/models"
)

// configRowID keys the single live row of the config table.
const configRowID = "global"

const tradeColumns = `ticket, account_id, symbol, type, lots, open_price, close_price, open_time, close_time,
	sl, tp, profit, swap, commission, comment, status, printer, created_at, updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLBackend stores the dashboard state in the SQLite schema created by the
// database package migrations.
type SQLBackend struct {
	db *sql.DB
}

// NewSQLBackend wraps an already migrated database handle. The backend owns
// the handle from then on and closes it in Close.
func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func (b *SQLBackend) Kind() string          { return "sqlite" }
func (b *SQLBackend) DateSeparator() string { return "-" }

func (b *SQLBackend) Close() error {
	return b.db.Close()
}

// withTx runs fn inside one transaction, rolling back on any error.
func (b *SQLBackend) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.FromContext(ctx).Error("Error rolling back DB transaction", "rollbackError", rbErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func sqlTime(t models.TradeTime) string {
	return t.Format(models.DashLayout)
}

func sqlNullTime(t *models.TradeTime) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: sqlTime(*t), Valid: true}
}

func sqlNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func parseStoredTime(raw, column string) (models.TradeTime, error) {
	t, err := models.ParseTradeTime(raw)
	if err != nil {
		return models.TradeTime{}, fmt.Errorf("%w: column %s: %v", ErrCorrupt, column, err)
	}
	return models.TradeTime{Time: t}, nil
}

// --- Trades ---

func scanTrade(row rowScanner) (*models.Trade, error) {
	var t models.Trade
	var closePrice sql.NullFloat64
	var closeTime sql.NullString
	var openTime, createdAt, updatedAt string

	err := row.Scan(
		&t.Ticket, &t.AccountID, &t.Symbol, &t.Type, &t.Lots, &t.OpenPrice, &closePrice,
		&openTime, &closeTime, &t.SL, &t.TP, &t.Profit, &t.Swap, &t.Commission,
		&t.Comment, &t.Status, &t.Printer, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if closePrice.Valid {
		v := closePrice.Float64
		t.ClosePrice = &v
	}
	if t.OpenTime, err = parseStoredTime(openTime, "open_time"); err != nil {
		return nil, err
	}
	if closeTime.Valid {
		ct, err := parseStoredTime(closeTime.String, "close_time")
		if err != nil {
			return nil, err
		}
		t.CloseTime = &ct
	}
	if t.CreatedAt, err = parseStoredTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseStoredTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &t, nil
}

func getTrade(ctx context.Context, q queryer, ticket int64) (*models.Trade, error) {
	row := q.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE ticket = ?`, ticket)
	t, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trade %d: %w", ticket, ErrNotFound)
		}
		return nil, fmt.Errorf("load trade %d: %w", ticket, err)
	}
	return t, nil
}

func tradeExists(ctx context.Context, q queryer, ticket int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM trades WHERE ticket = ?`, ticket).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("trade %d: %w", ticket, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check trade %d: %w", ticket, err)
	}
	return nil
}

func (b *SQLBackend) GetTrades(ctx context.Context) ([]models.Trade, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT `+tradeColumns+` FROM trades ORDER BY ticket`)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

func (b *SQLBackend) GetTrade(ctx context.Context, ticket int64) (*models.Trade, error) {
	return getTrade(ctx, b.db, ticket)
}

func (b *SQLBackend) AddTrade(ctx context.Context, t models.Trade) (bool, error) {
	res, err := b.db.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticket) DO NOTHING`,
		t.Ticket, t.AccountID, t.Symbol, t.Type, t.Lots, t.OpenPrice, sqlNullFloat(t.ClosePrice),
		sqlTime(t.OpenTime), sqlNullTime(t.CloseTime), t.SL, t.TP, t.Profit, t.Swap, t.Commission,
		t.Comment, t.Status, t.Printer, sqlTime(t.CreatedAt), sqlTime(t.UpdatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert trade %d: %w", t.Ticket, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert trade %d: %w", t.Ticket, err)
	}
	return n > 0, nil
}

func (b *SQLBackend) UpdateTrade(ctx context.Context, ticket int64, mutate TradeMutation) (*models.Trade, error) {
	var updated *models.Trade
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		t, err := getTrade(ctx, tx, ticket)
		if err != nil {
			return err
		}
		confirm, err := mutate(t)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE trades SET account_id = ?, symbol = ?, type = ?, lots = ?, open_price = ?, close_price = ?,
				open_time = ?, close_time = ?, sl = ?, tp = ?, profit = ?, swap = ?, commission = ?,
				comment = ?, status = ?, printer = ?, updated_at = ?
			WHERE ticket = ?`,
			t.AccountID, t.Symbol, t.Type, t.Lots, t.OpenPrice, sqlNullFloat(t.ClosePrice),
			sqlTime(t.OpenTime), sqlNullTime(t.CloseTime), t.SL, t.TP, t.Profit, t.Swap, t.Commission,
			t.Comment, t.Status, t.Printer, sqlTime(t.UpdatedAt), ticket,
		)
		if err != nil {
			return fmt.Errorf("update trade %d: %w", ticket, err)
		}
		if confirm {
			if err := confirmClose(ctx, tx, ticket); err != nil {
				return err
			}
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- Account ---

func (b *SQLBackend) GetAccount(ctx context.Context) (*models.Account, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT number, name, currency, leverage, balance, equity, free_margin, margin, created_at, updated_at
		FROM account ORDER BY created_at, number LIMIT 1`)

	var a models.Account
	var createdAt, updatedAt string
	err := row.Scan(&a.Number, &a.Name, &a.Currency, &a.Leverage, &a.Balance, &a.Equity,
		&a.FreeMargin, &a.Margin, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	created, err := parseStoredTime(createdAt, "account.created_at")
	if err != nil {
		return nil, err
	}
	modified, err := parseStoredTime(updatedAt, "account.updated_at")
	if err != nil {
		return nil, err
	}
	a.CreatedAt, a.UpdatedAt = &created, &modified
	return &a, nil
}

func (b *SQLBackend) UpsertAccount(ctx context.Context, a models.Account) error {
	now := models.NewTradeTime(time.Now())
	created, updated := now, now
	if a.CreatedAt != nil {
		created = *a.CreatedAt
	}
	if a.UpdatedAt != nil {
		updated = *a.UpdatedAt
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO account (number, name, currency, leverage, balance, equity, free_margin, margin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			name = excluded.name, currency = excluded.currency, leverage = excluded.leverage,
			balance = excluded.balance, equity = excluded.equity, free_margin = excluded.free_margin,
			margin = excluded.margin, updated_at = excluded.updated_at`,
		a.Number, a.Name, a.Currency, a.Leverage, a.Balance, a.Equity, a.FreeMargin, a.Margin,
		sqlTime(created), sqlTime(updated),
	)
	if err != nil {
		return fmt.Errorf("upsert account %d: %w", a.Number, err)
	}
	return nil
}

// --- Config ---

func loadConfig(ctx context.Context, q queryer) (models.DashboardConfig, error) {
	cfg := models.DefaultDashboardConfig()
	err := q.QueryRowContext(ctx, `
		SELECT auto_sl_enabled, auto_sl_distance_pips, trailing_enabled, trailing_distance_pips, close_bloc_all_trade
		FROM config WHERE id = ?`, configRowID).Scan(
		&cfg.AutoStopLoss.Enabled, &cfg.AutoStopLoss.DistancePips,
		&cfg.TrailingStop.Enabled, &cfg.TrailingStop.DistancePips,
		&cfg.CloseBlocAllTrades,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultDashboardConfig(), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (b *SQLBackend) GetConfig(ctx context.Context) (models.DashboardConfig, error) {
	return loadConfig(ctx, b.db)
}

func (b *SQLBackend) PatchConfig(ctx context.Context, patch func(c *models.DashboardConfig)) (models.DashboardConfig, error) {
	var result models.DashboardConfig
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		patch(&cfg)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO config (id, auto_sl_enabled, auto_sl_distance_pips, trailing_enabled, trailing_distance_pips,
				close_bloc_all_trade, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				auto_sl_enabled = excluded.auto_sl_enabled,
				auto_sl_distance_pips = excluded.auto_sl_distance_pips,
				trailing_enabled = excluded.trailing_enabled,
				trailing_distance_pips = excluded.trailing_distance_pips,
				close_bloc_all_trade = excluded.close_bloc_all_trade,
				updated_at = excluded.updated_at`,
			configRowID, cfg.AutoStopLoss.Enabled, cfg.AutoStopLoss.DistancePips,
			cfg.TrailingStop.Enabled, cfg.TrailingStop.DistancePips, cfg.CloseBlocAllTrades,
			time.Now().Format(models.DashLayout),
		)
		if err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		result = cfg
		return nil
	})
	return result, err
}

// --- Comments ---

const commentColumns = `text, satisfaction, confiance, attente, date, status, printer`

func scanComment(row rowScanner, extra ...any) (*models.Comment, error) {
	var c models.Comment
	dest := append(extra, &c.Text, &c.Satisfaction, &c.Confiance, &c.Attente, &c.Date, &c.Status, &c.Printer)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}

func getComment(ctx context.Context, q queryer, ticket int64) (*models.Comment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE ticket = ?`, ticket)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", ticket, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load comment %d: %w", ticket, err)
	}
	return c, nil
}

func (b *SQLBackend) GetComments(ctx context.Context) (map[string]models.Comment, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT ticket, `+commentColumns+` FROM comments ORDER BY ticket`)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := make(map[string]models.Comment)
	for rows.Next() {
		var ticket int64
		c, err := scanComment(rows, &ticket)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments[strconv.FormatInt(ticket, 10)] = *c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (b *SQLBackend) UpsertComment(ctx context.Context, ticket int64, c models.Comment) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if err := tradeExists(ctx, tx, ticket); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO comments (ticket, `+commentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ticket) DO UPDATE SET
				text = excluded.text, satisfaction = excluded.satisfaction, confiance = excluded.confiance,
				attente = excluded.attente, date = excluded.date, status = excluded.status, printer = excluded.printer`,
			ticket, c.Text, c.Satisfaction, c.Confiance, c.Attente, c.Date, c.Status, c.Printer,
		)
		if err != nil {
			return fmt.Errorf("upsert comment %d: %w", ticket, err)
		}
		return nil
	})
}

func (b *SQLBackend) EditComment(ctx context.Context, ticket int64, edit func(c *models.Comment)) (*models.Comment, error) {
	var edited *models.Comment
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		c, err := getComment(ctx, tx, ticket)
		if err != nil {
			return err
		}
		edit(c)
		_, err = tx.ExecContext(ctx, `
			UPDATE comments SET text = ?, satisfaction = ?, confiance = ?, attente = ?, date = ?, status = ?, printer = ?
			WHERE ticket = ?`,
			c.Text, c.Satisfaction, c.Confiance, c.Attente, c.Date, c.Status, c.Printer, ticket,
		)
		if err != nil {
			return fmt.Errorf("update comment %d: %w", ticket, err)
		}
		edited = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

func (b *SQLBackend) DeleteComment(ctx context.Context, ticket int64) (*models.Comment, error) {
	var deleted *models.Comment
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		c, err := getComment(ctx, tx, ticket)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE ticket = ?`, ticket); err != nil {
			return fmt.Errorf("delete comment %d: %w", ticket, err)
		}
		deleted = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// --- Pending closes ---

func confirmClose(ctx context.Context, q queryer, ticket int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO pending_closes (ticket, action_finish, created_at) VALUES (?, ?, ?)
		ON CONFLICT(ticket) DO UPDATE SET action_finish = excluded.action_finish`,
		ticket, models.ActionFinished, time.Now().Format(models.DashLayout),
	)
	if err != nil {
		return fmt.Errorf("confirm close of trade %d: %w", ticket, err)
	}
	return nil
}

func (b *SQLBackend) RequestClose(ctx context.Context, ticket int64) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if err := tradeExists(ctx, tx, ticket); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_closes WHERE ticket = ?`, ticket); err != nil {
			return fmt.Errorf("clear pending close of trade %d: %w", ticket, err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pending_closes (ticket, action_finish, created_at) VALUES (?, ?, ?)`,
			ticket, models.ActionPending, time.Now().Format(models.DashLayout),
		)
		if err != nil {
			return fmt.Errorf("queue close of trade %d: %w", ticket, err)
		}
		return nil
	})
}

func (b *SQLBackend) ConfirmClose(ctx context.Context, ticket int64) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if err := tradeExists(ctx, tx, ticket); err != nil {
			return err
		}
		return confirmClose(ctx, tx, ticket)
	})
}

func (b *SQLBackend) PendingCloses(ctx context.Context) ([]int64, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT ticket FROM pending_closes WHERE action_finish = ? ORDER BY id`, models.ActionPending)
	if err != nil {
		return nil, fmt.Errorf("query pending closes: %w", err)
	}
	defer rows.Close()

	var tickets []int64
	for rows.Next() {
		var ticket int64
		if err := rows.Scan(&ticket); err != nil {
			return nil, fmt.Errorf("scan pending close: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending closes: %w", err)
	}
	return tickets, nil
}
