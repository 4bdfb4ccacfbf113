package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/models"
	"github.com/tradeboard/backend/src/security/validation"
	"github.com/tradeboard/backend/src/storage"
)

type tradeServiceImpl struct {
	backend         storage.Backend
	printer         string
	startingBalance string
	now             func() time.Time
}

// NewTradeService builds the ledger service. printer tags trades created
// without an explicit origin; startingBalance is the raw
// MT4_DASHBOARD_BALANCE value used when no account snapshot exists.
func NewTradeService(backend storage.Backend, printer, startingBalance string) TradeService {
	return &tradeServiceImpl{
		backend:         backend,
		printer:         printer,
		startingBalance: startingBalance,
		now:             time.Now,
	}
}

func (s *tradeServiceImpl) AddTrade(ctx context.Context, payload Payload) (int64, bool, error) {
	ticket, err := validation.AsTicket(payload["ticket"], "ticket")
	if err != nil {
		return 0, false, err
	}

	now := models.NewTradeTime(s.now())
	trade := models.Trade{
		Ticket:    ticket,
		Symbol:    models.UnknownSymbol,
		OpenTime:  now,
		Status:    models.TradeStatusActive,
		Printer:   s.printer,
		CreatedAt: now,
		UpdatedAt: now,
	}

	names := make([]string, 0, len(updatableFields))
	for name := range updatableFields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		setter := updatableFields[name]
		raw, present := payload[name]
		if !present || raw == nil {
			continue
		}
		switch name {
		case "status":
			// New trades always start active.
			continue
		case "open_time":
			if t, err := parseTimeValue(raw, name); err == nil {
				trade.OpenTime = t
			}
			continue
		case "close_time":
			if t, err := parseTimeValue(raw, name); err == nil {
				trade.CloseTime = &t
			}
			continue
		}
		apply, err := setter(raw)
		if err != nil {
			return 0, false, err
		}
		apply(&trade)
	}
	if trade.Symbol == "" {
		trade.Symbol = models.UnknownSymbol
	}
	if trade.Printer == "" {
		trade.Printer = s.printer
	}

	created, err := s.backend.AddTrade(ctx, trade)
	if err != nil {
		return 0, false, fmt.Errorf("add trade %d: %w", ticket, err)
	}
	if created {
		logger.FromContext(ctx).Info("Trade added", "ticket", ticket, "symbol", trade.Symbol)
	}
	return ticket, created, nil
}

func (s *tradeServiceImpl) UpdateTrade(ctx context.Context, ticket int64, updates Payload) (*models.Trade, []string, error) {
	if ticket <= 0 {
		return nil, nil, validation.Failf("id must be a positive integer")
	}
	applies, names, err := resolveUpdates(updates)
	if err != nil {
		return nil, nil, err
	}

	_, setsClosePrice := updates["close_price"]
	_, setsCloseTime := updates["close_time"]
	_, setsOpenPrice := updates["open_price"]
	_, setsOpenTime := updates["open_time"]
	_, setsStatus := updates["status"]
	now := models.NewTradeTime(s.now())

	updated, err := s.backend.UpdateTrade(ctx, ticket, func(t *models.Trade) (bool, error) {
		hadCloseTime := t.CloseTime != nil
		hadOpenTime := !t.OpenTime.IsZero()

		for _, apply := range applies {
			apply(t)
		}

		if setsClosePrice && !setsCloseTime && !hadCloseTime && t.ClosePrice != nil {
			stamp := now
			t.CloseTime = &stamp
		}
		if setsOpenPrice && !setsOpenTime && !hadOpenTime {
			t.OpenTime = now
		}
		t.UpdatedAt = now

		return setsStatus && models.IsClosedStatus(t.Status), nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("update trade %d: %w", ticket, err)
	}

	logger.FromContext(ctx).Info("Trade updated", "ticket", ticket, "fields", names)
	return updated, names, nil
}

func (s *tradeServiceImpl) GetAll(ctx context.Context) (*models.TradeBook, error) {
	trades, err := s.backend.GetTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	account, err := s.backend.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	var open, closed []models.Trade
	for _, t := range trades {
		if t.IsOpen() {
			open = append(open, t)
		} else {
			closed = append(closed, t)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].CloseTime.After(closed[j].CloseTime.Time)
	})
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].OpenTime.After(open[j].OpenTime.Time)
	})

	sep := s.backend.DateSeparator()
	book := &models.TradeBook{
		Account:      account,
		OpenTrades:   make([]models.TradeView, 0, len(open)),
		ClosedTrades: make([]models.TradeView, 0, len(closed)),
	}
	for _, t := range open {
		book.OpenTrades = append(book.OpenTrades, projectTrade(t, sep))
	}
	for _, t := range closed {
		book.ClosedTrades = append(book.ClosedTrades, projectTrade(t, sep))
	}
	return book, nil
}

func projectTrade(t models.Trade, sep string) models.TradeView {
	view := models.TradeView{
		Ticket:     t.Ticket,
		Symbol:     t.Symbol,
		Type:       t.Type,
		Lots:       t.Lots,
		OpenPrice:  t.OpenPrice,
		ClosePrice: t.ClosePrice,
		OpenTime:   models.DisplayTime(t.OpenTime.Time, sep),
		SL:         t.SL,
		TP:         t.TP,
		Profit:     t.Profit,
		Swap:       t.Swap,
		Commission: t.Commission,
		Comment:    t.Comment,
		Status:     t.Status,
	}
	if t.CloseTime != nil {
		closeTime := models.DisplayTime(t.CloseTime.Time, sep)
		view.CloseTime = &closeTime
	}
	return view
}

func (s *tradeServiceImpl) GetCapital(ctx context.Context) (float64, error) {
	account, err := s.backend.GetAccount(ctx)
	if err != nil {
		return 0, fmt.Errorf("load account: %w", err)
	}
	if account != nil {
		return account.Balance, nil
	}

	if s.startingBalance == "" {
		return 0, fmt.Errorf("%w: no account snapshot stored and MT4_DASHBOARD_BALANCE is not set", ErrCapitalUnavailable)
	}
	capital, err := strconv.ParseFloat(s.startingBalance, 64)
	if err != nil {
		return 0, validation.Failf("MT4_DASHBOARD_BALANCE is not a valid number")
	}
	return capital, nil
}
