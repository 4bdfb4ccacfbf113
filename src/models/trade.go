package models

import "strings"

// Trade lifecycle tags.
const (
	TradeStatusActive = "active"
	TradeStatusClosed = "closed"

	UnknownSymbol = "UNKNOWN"
)

// Trade is one broker position. CloseTime is nil while the trade is open.
type Trade struct {
	Ticket     int64      `json:"ticket"`
	AccountID  int64      `json:"account_id"`
	Symbol     string     `json:"symbol"`
	Type       int        `json:"type"` // 0 = buy, 1 = sell (MT4 OP_ codes)
	Lots       float64    `json:"lots"`
	OpenPrice  float64    `json:"open_price"`
	ClosePrice *float64   `json:"close_price"`
	OpenTime   TradeTime  `json:"open_time"`
	CloseTime  *TradeTime `json:"close_time"`
	SL         float64    `json:"sl"`
	TP         float64    `json:"tp"`
	Profit     float64    `json:"profit"`
	Swap       float64    `json:"swap"`
	Commission float64    `json:"commission"`
	Comment    string     `json:"comment"`
	Status     string     `json:"status"`
	Printer    string     `json:"printer"`
	CreatedAt  TradeTime  `json:"created_at"`
	UpdatedAt  TradeTime  `json:"updated_at"`
}

// IsOpen reports whether the trade has no close time yet.
func (t *Trade) IsOpen() bool {
	return t.CloseTime == nil
}

// IsClosedStatus reports whether a status tag means the position is closed.
func IsClosedStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "closed", "close":
		return true
	}
	return false
}

// TradeView is the projection served to the dashboard, with display-formatted times.
type TradeView struct {
	Ticket     int64    `json:"ticket"`
	Symbol     string   `json:"symbol"`
	Type       int      `json:"type"`
	Lots       float64  `json:"lots"`
	OpenPrice  float64  `json:"open_price"`
	ClosePrice *float64 `json:"close_price"`
	OpenTime   string   `json:"open_time"`
	CloseTime  *string  `json:"close_time"`
	SL         float64  `json:"sl"`
	TP         float64  `json:"tp"`
	Profit     float64  `json:"profit"`
	Swap       float64  `json:"swap"`
	Commission float64  `json:"commission"`
	Comment    string   `json:"comment"`
	Status     string   `json:"status"`
}

// TradeBook is the full ledger read: account snapshot plus the open/closed partition.
type TradeBook struct {
	Account      *Account    `json:"account"`
	OpenTrades   []TradeView `json:"open_trades"`
	ClosedTrades []TradeView `json:"closed_trades"`
}
