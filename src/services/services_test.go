package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeboard/backend/src/database"
	"github.com/tradeboard/backend/src/models"
	"github.com/tradeboard/backend/src/security/validation"
	"github.com/tradeboard/backend/src/storage"
)

var fixedNow = time.Date(2025, 7, 3, 17, 11, 30, 0, time.Local)

func clock() time.Time { return fixedNow }

func num(s string) json.Number { return json.Number(s) }

// forEachBackend runs fn against a fresh SQLite database and a fresh set of
// JSON documents.
func forEachBackend(t *testing.T, fn func(t *testing.T, b storage.Backend)) {
	t.Run("sqlite", func(t *testing.T) {
		db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "dashboard.db"), 2*time.Second)
		require.NoError(t, err)
		b := storage.NewSQLBackend(db)
		t.Cleanup(func() { _ = b.Close() })
		fn(t, b)
	})
	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		fn(t, storage.NewFileBackend(storage.FilePaths{
			Trades:        filepath.Join(dir, "dashboard_data.json"),
			Config:        filepath.Join(dir, "config.json"),
			Comments:      filepath.Join(dir, "comments.json"),
			PendingCloses: filepath.Join(dir, "pending_closes.json"),
		}))
	})
}

func newTrades(b storage.Backend, startingBalance string) *tradeServiceImpl {
	s := NewTradeService(b, "dashboard", startingBalance).(*tradeServiceImpl)
	s.now = clock
	return s
}

func newComments(b storage.Backend) *commentServiceImpl {
	s := NewCommentService(b, "dashboard").(*commentServiceImpl)
	s.now = clock
	return s
}

func mustAdd(t *testing.T, s TradeService, payload Payload) {
	t.Helper()
	_, created, err := s.AddTrade(context.Background(), payload)
	require.NoError(t, err)
	require.True(t, created)
}

// --- Trade ledger ---

func TestAddTradeIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newTrades(b, "")

		ticket, created, err := s.AddTrade(ctx, Payload{"ticket": num("1001"), "symbol": "EURUSD", "profit": num("12.5")})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(1001), ticket)

		ticket, created, err = s.AddTrade(ctx, Payload{"ticket": "1001", "symbol": "GBPUSD"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(1001), ticket)

		trades, err := b.GetTrades(ctx)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "EURUSD", trades[0].Symbol)
		assert.InDelta(t, 12.5, trades[0].Profit, 1e-9)
	})
}

func TestAddTradeDefaults(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newTrades(b, "")

		mustAdd(t, s, Payload{"ticket": num("7"), "open_time": "not a date", "close_time": "garbage", "status": "closed"})

		trade, err := b.GetTrade(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, models.UnknownSymbol, trade.Symbol)
		assert.Equal(t, 0, trade.Type)
		assert.Equal(t, int64(0), trade.AccountID)
		assert.Equal(t, models.TradeStatusActive, trade.Status)
		assert.Equal(t, "dashboard", trade.Printer)
		assert.True(t, trade.OpenTime.Equal(fixedNow))
		assert.Nil(t, trade.CloseTime)
		assert.Nil(t, trade.ClosePrice)
		assert.True(t, trade.IsOpen())
	})
}

func TestAddTradeAcceptsBothTimeLayouts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newTrades(b, "")

		mustAdd(t, s, Payload{
			"ticket":      num("8"),
			"open_time":   "2025.07.01 08:15:00",
			"close_time":  "2025-07-01 09:45:10",
			"close_price": num("1.17"),
			"printer":     "mt4-agent",
		})

		trade, err := b.GetTrade(ctx, 8)
		require.NoError(t, err)
		assert.True(t, trade.OpenTime.Equal(time.Date(2025, 7, 1, 8, 15, 0, 0, time.Local)))
		require.NotNil(t, trade.CloseTime)
		assert.True(t, trade.CloseTime.Equal(time.Date(2025, 7, 1, 9, 45, 10, 0, time.Local)))
		assert.Equal(t, "mt4-agent", trade.Printer)
		assert.False(t, trade.IsOpen())
	})
}

func TestAddTradeValidation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		s := newTrades(b, "")
		for name, payload := range map[string]Payload{
			"missing ticket":  {"symbol": "EURUSD"},
			"zero ticket":     {"ticket": num("0")},
			"text ticket":     {"ticket": "abc"},
			"non-numeric lot": {"ticket": num("9"), "lots": "lots"},
		} {
			t.Run(name, func(t *testing.T) {
				_, _, err := s.AddTrade(context.Background(), payload)
				assert.ErrorIs(t, err, validation.ErrValidationFailed)
			})
		}

		trades, err := b.GetTrades(context.Background())
		require.NoError(t, err)
		assert.Empty(t, trades)
	})
}

func TestUpdateTradeRejectsWholeRequest(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newTrades(b, "")
		mustAdd(t, s, Payload{"ticket": num("2001"), "symbol": "EURUSD", "sl": num("1.1")})

		before, err := b.GetTrade(ctx, 2001)
		require.NoError(t, err)

		cases := map[string]Payload{
			"unknown field":      {"sl": num("1.2"), "magic_number": num("42")},
			"ticket not allowed": {"ticket": num("3"), "tp": num("1.3")},
			"bad float":          {"sl": num("1.2"), "profit": "lots of money"},
			"bad int":            {"type": num("1.5")},
			"bad datetime":       {"open_time": "03/07/2025"},
			"null open_time":     {"open_time": nil},
			"empty":              {},
		}
		for name, updates := range cases {
			t.Run(name, func(t *testing.T) {
				_, _, err := s.UpdateTrade(ctx, 2001, updates)
				assert.ErrorIs(t, err, validation.ErrValidationFailed)
			})
		}

		after, err := b.GetTrade(ctx, 2001)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestUpdateTradeCoercesAndStamps(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newTrades(b, "")
		mustAdd(t, s, Payload{"ticket": num("2002"), "symbol": "EURUSD", "open_time": "2025.07.01 08:00:00"})

		updated, fields, err := s.UpdateTrade(ctx, 2002, Payload{
			"close_price": "1.1789",
			"profit":      num("42"),
			"type":        "1",
			"comment":     " tp hit ",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"close_price", "comment", "profit", "type"}, fields)
		require.NotNil(t, updated.ClosePrice)
		assert.InDelta(t, 1.1789, *updated.ClosePrice, 1e-9)
		assert.Equal(t, 1, updated.Type)
		assert.Equal(t, "tp hit", updated.Comment)
		require.NotNil(t, updated.CloseTime)
		assert.True(t, updated.CloseTime.Equal(fixedNow))
		assert.True(t, updated.UpdatedAt.Equal(fixedNow))

		stored, err := b.GetTrade(ctx, 2002)
		require.NoError(t, err)
		assert.False(t, stored.IsOpen())
		assert.True(t, stored.OpenTime.Equal(time.Date(2025, 7, 1, 8, 0, 0, 0, time.Local)))
	})
}

func TestUpdateTradeExplicitCloseTimeWins(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newTrades(b, "")
		mustAdd(t, s, Payload{"ticket": num("2003")})

		updated, _, err := s.UpdateTrade(ctx, 2003, Payload{
			"close_price": num("1.5"),
			"close_time":  "2025.07.02 10:00:00",
		})
		require.NoError(t, err)
		require.NotNil(t, updated.CloseTime)
		assert.True(t, updated.CloseTime.Equal(time.Date(2025, 7, 2, 10, 0, 0, 0, time.Local)))

		// A later price correction keeps the existing close time.
		updated, _, err = s.UpdateTrade(ctx, 2003, Payload{"close_price": num("1.6")})
		require.NoError(t, err)
		assert.True(t, updated.CloseTime.Equal(time.Date(2025, 7, 2, 10, 0, 0, 0, time.Local)))

		// Reopening clears both.
		updated, _, err = s.UpdateTrade(ctx, 2003, Payload{"close_price": nil, "close_time": nil})
		require.NoError(t, err)
		assert.True(t, updated.IsOpen())
		assert.Nil(t, updated.ClosePrice)
	})
}

func TestUpdateTradeUnknownTicket(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		_, _, err := newTrades(b, "").UpdateTrade(context.Background(), 404, Payload{"profit": num("1")})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestGetAllPartitionsAndFormats(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newTrades(b, "")

		mustAdd(t, s, Payload{"ticket": num("1"), "open_time": "2025.07.01 00:00:00"})
		mustAdd(t, s, Payload{"ticket": num("2"), "open_time": "2025.07.02 09:30:00"})
		mustAdd(t, s, Payload{"ticket": num("3"), "open_time": "2025.06.30 08:00:00", "close_time": "2025.07.02 10:30:00", "close_price": num("1.1")})
		mustAdd(t, s, Payload{"ticket": num("4"), "open_time": "2025.06.29 08:00:00", "close_time": "2025.07.03 11:00:05", "close_price": num("1.2")})
		require.NoError(t, b.UpsertAccount(ctx, models.Account{Number: 55, Balance: 1000}))

		book, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.NotNil(t, book.Account)
		assert.Equal(t, int64(55), book.Account.Number)

		sep := b.DateSeparator()
		require.Len(t, book.OpenTrades, 2)
		require.Len(t, book.ClosedTrades, 2)

		assert.Equal(t, int64(2), book.OpenTrades[0].Ticket)
		assert.Equal(t, "2025"+sep+"07"+sep+"02 09:30", book.OpenTrades[0].OpenTime)
		assert.Equal(t, int64(1), book.OpenTrades[1].Ticket)
		assert.Equal(t, "2025"+sep+"07"+sep+"01", book.OpenTrades[1].OpenTime)

		assert.Equal(t, int64(4), book.ClosedTrades[0].Ticket)
		require.NotNil(t, book.ClosedTrades[0].CloseTime)
		assert.Equal(t, "2025"+sep+"07"+sep+"03 11:00:05", *book.ClosedTrades[0].CloseTime)
		assert.Equal(t, int64(3), book.ClosedTrades[1].Ticket)
		assert.Equal(t, "2025"+sep+"07"+sep+"02 10:30", *book.ClosedTrades[1].CloseTime)

		for _, v := range book.OpenTrades {
			assert.Nil(t, v.CloseTime)
		}
		for _, v := range book.ClosedTrades {
			assert.NotNil(t, v.CloseTime)
		}
	})
}

func TestGetAllEmptyLedger(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		book, err := newTrades(b, "").GetAll(context.Background())
		require.NoError(t, err)
		assert.Nil(t, book.Account)
		assert.NotNil(t, book.OpenTrades)
		assert.NotNil(t, book.ClosedTrades)
		assert.Empty(t, book.OpenTrades)
	})
}

func TestGetCapital(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()

		_, err := newTrades(b, "").GetCapital(ctx)
		assert.ErrorIs(t, err, ErrCapitalUnavailable)

		_, err = newTrades(b, "ten thousand").GetCapital(ctx)
		assert.ErrorIs(t, err, validation.ErrValidationFailed)

		capital, err := newTrades(b, "10000.5").GetCapital(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 10000.5, capital, 1e-9)

		require.NoError(t, b.UpsertAccount(ctx, models.Account{Number: 1, Balance: 2500}))
		capital, err = newTrades(b, "10000.5").GetCapital(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 2500, capital, 1e-9)
	})
}

// --- Pending-close queue ---

func TestCloseHandshake(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		trades := newTrades(b, "")
		queue := NewCloseQueueService(b)
		mustAdd(t, trades, Payload{"ticket": num("3001")})
		mustAdd(t, trades, Payload{"ticket": num("3002")})

		require.NoError(t, queue.RequestClose(ctx, 3001))

		toClose, err := queue.FilterPending(ctx, []int64{3001, 3002})
		require.NoError(t, err)
		assert.Equal(t, []int64{3001}, toClose)

		_, _, err = trades.UpdateTrade(ctx, 3001, Payload{"status": "Closed"})
		require.NoError(t, err)

		toClose, err = queue.FilterPending(ctx, []int64{3001, 3002})
		require.NoError(t, err)
		assert.Empty(t, toClose)
	})
}

func TestRequestCloseUnknownTrade(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		queue := NewCloseQueueService(b)
		assert.ErrorIs(t, queue.RequestClose(context.Background(), 77), storage.ErrNotFound)
		assert.ErrorIs(t, queue.RequestClose(context.Background(), 0), validation.ErrValidationFailed)
	})
}

func TestFilterPendingIgnoresStaleEntries(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		trades := newTrades(b, "")
		queue := NewCloseQueueService(b)
		for _, ticket := range []string{"1", "2", "3"} {
			mustAdd(t, trades, Payload{"ticket": num(ticket)})
		}
		require.NoError(t, queue.RequestClose(ctx, 1))
		require.NoError(t, queue.RequestClose(ctx, 2))

		toClose, err := queue.FilterPending(ctx, []int64{3, 2, 2})
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, toClose)

		toClose, err = queue.FilterPending(ctx, nil)
		require.NoError(t, err)
		assert.NotNil(t, toClose)
		assert.Empty(t, toClose)
	})
}

func TestStatusUpdateWithoutRequestIsNotPending(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		trades := newTrades(b, "")
		queue := NewCloseQueueService(b)
		mustAdd(t, trades, Payload{"ticket": num("5")})

		_, _, err := trades.UpdateTrade(ctx, 5, Payload{"status": "closed"})
		require.NoError(t, err)

		toClose, err := queue.FilterPending(ctx, []int64{5})
		require.NoError(t, err)
		assert.Empty(t, toClose)

		// A later dashboard request still queues it.
		require.NoError(t, queue.RequestClose(ctx, 5))
		toClose, err = queue.FilterPending(ctx, []int64{5})
		require.NoError(t, err)
		assert.Equal(t, []int64{5}, toClose)
	})
}

// --- Comments ---

func TestAddCommentRequiresExistingTrade(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newComments(b)

		_, err := s.Add(ctx, 999999, Payload{"text": "orphan"})
		assert.ErrorIs(t, err, storage.ErrNotFound)

		comments, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})
}

func TestAddComment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newComments(b)
		mustAdd(t, newTrades(b, ""), Payload{"ticket": num("4001")})

		_, err := s.Add(ctx, 4001, Payload{"satisfaction": num("3")})
		assert.ErrorIs(t, err, validation.ErrValidationFailed)
		_, err = s.Add(ctx, 4001, Payload{"text": "   ", "attente": ""})
		assert.ErrorIs(t, err, validation.ErrValidationFailed)
		_, err = s.Add(ctx, 4001, Payload{"text": "ok", "confiance": num("9")})
		assert.ErrorIs(t, err, validation.ErrValidationFailed)

		added, err := s.Add(ctx, 4001, Payload{"text": " <b>Breakout</b> confirmed ", "satisfaction": "4"})
		require.NoError(t, err)
		assert.Equal(t, "Breakout confirmed", added.Text)
		assert.Equal(t, 4, added.Satisfaction)
		assert.Equal(t, 0, added.Confiance)
		assert.Equal(t, "2025.07.03 17:11", added.Date)
		assert.Equal(t, "active", added.Status)
		assert.Equal(t, "dashboard", added.Printer)

		// Re-adding replaces the whole comment.
		_, err = s.Add(ctx, 4001, Payload{"attente": "pullback"})
		require.NoError(t, err)
		comments, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Contains(t, comments, "4001")
		assert.Equal(t, "", comments["4001"].Text)
		assert.Equal(t, "pullback", comments["4001"].Attente)
		assert.Equal(t, 0, comments["4001"].Satisfaction)

		// Punctuation is stored as typed, not HTML-escaped.
		_, err = s.Add(ctx, 4001, Payload{"text": "l'entrée était bonne & SL < 10 pips", "attente": `"range" > trend`})
		require.NoError(t, err)
		comments, err = s.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "l'entrée était bonne & SL < 10 pips", comments["4001"].Text)
		assert.Equal(t, `"range" > trend`, comments["4001"].Attente)
	})
}

func TestEditCommentIsAllOrNothing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newComments(b)
		mustAdd(t, newTrades(b, ""), Payload{"ticket": num("4002")})
		_, err := s.Add(ctx, 4002, Payload{"text": "original", "satisfaction": num("2")})
		require.NoError(t, err)

		for name, payload := range map[string]Payload{
			"score out of range": {"text": "rewritten", "satisfaction": num("7")},
			"score not integer":  {"text": "rewritten", "confiance": "high"},
			"text not a string":  {"text": num("5"), "satisfaction": num("1")},
			"no editable field":  {"date": "2025.01.01 00:00"},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := s.Edit(ctx, 4002, payload)
				assert.ErrorIs(t, err, validation.ErrValidationFailed)
			})
		}

		comments, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "original", comments["4002"].Text)
		assert.Equal(t, 2, comments["4002"].Satisfaction)
	})
}

func TestEditComment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newComments(b)
		mustAdd(t, newTrades(b, ""), Payload{"ticket": num("4003")})

		_, err := s.Edit(ctx, 4003, Payload{"text": "nothing yet"})
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.Add(ctx, 4003, Payload{"text": "first", "attente": "range"})
		require.NoError(t, err)

		s.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
		edited, err := s.Edit(ctx, 4003, Payload{"confiance": "5", "attente": "  trend  "})
		require.NoError(t, err)
		assert.Equal(t, "first", edited.Text)
		assert.Equal(t, "trend", edited.Attente)
		assert.Equal(t, 5, edited.Confiance)
		assert.Equal(t, "2025.07.03 19:11", edited.Date)

		_, err = s.Edit(ctx, 4003, Payload{"text": "l'entrée & SL < 10"})
		require.NoError(t, err)
		comments, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "l'entrée & SL < 10", comments["4003"].Text)
	})
}

func TestDeleteComment(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := newComments(b)
		mustAdd(t, newTrades(b, ""), Payload{"ticket": num("4004")})
		_, err := s.Add(ctx, 4004, Payload{"text": "to remove"})
		require.NoError(t, err)

		deleted, err := s.Delete(ctx, 4004)
		require.NoError(t, err)
		assert.Equal(t, "to remove", deleted.Text)

		_, err = s.Delete(ctx, 4004)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		comments, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})
}

// --- Config ---

func TestPatchConfigSection(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := NewConfigService(b)

		updated, err := s.Patch(ctx, Payload{"section": "auto_stop_loss", "enabled": true, "distance_pips": num("15")})
		require.NoError(t, err)
		assert.Equal(t, models.RiskToggle{Enabled: true, DistancePips: 15}, updated)

		cfg, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.RiskToggle{Enabled: true, DistancePips: 15}, cfg.AutoStopLoss)
		assert.Equal(t, models.RiskToggle{}, cfg.TrailingStop)
		assert.False(t, cfg.CloseBlocAllTrades)

		// Fields left out are preserved.
		updated, err = s.Patch(ctx, Payload{"section": "auto_stop_loss", "distance_pips": num("20")})
		require.NoError(t, err)
		assert.Equal(t, models.RiskToggle{Enabled: true, DistancePips: 20}, updated)
	})
}

func TestPatchConfigRootFlag(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := NewConfigService(b)

		updated, err := s.Patch(ctx, Payload{"closeBloc_allTrade": true})
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"closeBloc_allTrade": true}, updated)

		cfg, err := s.Get(ctx)
		require.NoError(t, err)
		assert.True(t, cfg.CloseBlocAllTrades)
		assert.Equal(t, models.RiskToggle{}, cfg.AutoStopLoss)
	})
}

func TestPatchConfigRejectsWithoutEffect(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := NewConfigService(b)

		for name, payload := range map[string]Payload{
			"unknown section":      {"section": "take_profit", "enabled": true},
			"missing section":      {"enabled": true},
			"enabled not bool":     {"section": "trailing_stop", "enabled": "yes"},
			"negative distance":    {"section": "trailing_stop", "enabled": true, "distance_pips": num("-1")},
			"fractional distance":  {"section": "trailing_stop", "distance_pips": num("1.5")},
			"string distance":      {"section": "trailing_stop", "distance_pips": "10"},
			"flag not bool":        {"closeBloc_allTrade": "true"},
			"both shapes combined": {"closeBloc_allTrade": true, "section": "trailing_stop"},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := s.Patch(ctx, payload)
				assert.ErrorIs(t, err, validation.ErrValidationFailed)
			})
		}

		cfg, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultDashboardConfig(), cfg)
	})
}

// --- Account ---

func TestAccountUpdate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b storage.Backend) {
		ctx := context.Background()
		s := NewAccountService(b)

		_, err := s.Update(ctx, Payload{"name": "no number"})
		assert.ErrorIs(t, err, validation.ErrValidationFailed)
		_, err = s.Update(ctx, Payload{"number": num("12345"), "balance": "lots"})
		assert.ErrorIs(t, err, validation.ErrValidationFailed)

		_, err = s.Update(ctx, Payload{
			"number": num("12345"), "name": "Live", "currency": "EUR", "leverage": num("100"),
			"balance": num("10500.25"), "equity": num("10490"), "free_margin": num("9000"), "margin": num("1490"),
		})
		require.NoError(t, err)

		a, err := b.GetAccount(ctx)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "Live", a.Name)
		assert.Equal(t, 100, a.Leverage)
		assert.InDelta(t, 10500.25, a.Balance, 1e-9)
		assert.InDelta(t, 9000, a.FreeMargin, 1e-9)
	})
}
