package models

// Comment is the free-text annotation attached to one trade.
type Comment struct {
	Text         string `json:"text"`
	Satisfaction int    `json:"satisfaction"`
	Confiance    int    `json:"confiance"`
	Attente      string `json:"attente"`
	Date         string `json:"date"`
	Status       string `json:"status,omitempty"`
	Printer      string `json:"printer,omitempty"`
}

// CommentDateLayout is the layout of Comment.Date ("YYYY.MM.DD HH:MM").
const CommentDateLayout = "2006.01.02 15:04"

// Risk-management sections of the dashboard config.
const (
	SectionAutoStopLoss = "auto_stop_loss"
	SectionTrailingStop = "trailing_stop"
)

// RiskToggle is one risk-management section.
type RiskToggle struct {
	Enabled      bool `json:"enabled"`
	DistancePips int  `json:"distance_pips"`
}

// DashboardConfig is the singleton configuration tree.
type DashboardConfig struct {
	AutoStopLoss       RiskToggle `json:"auto_stop_loss"`
	TrailingStop       RiskToggle `json:"trailing_stop"`
	CloseBlocAllTrades bool       `json:"closeBloc_allTrade"`
}

// DefaultDashboardConfig is served when no config has been stored yet.
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{}
}

// Section returns a pointer to the named risk section, or nil for an unknown name.
func (c *DashboardConfig) Section(name string) *RiskToggle {
	switch name {
	case SectionAutoStopLoss:
		return &c.AutoStopLoss
	case SectionTrailingStop:
		return &c.TrailingStop
	}
	return nil
}

// Account is the broker account snapshot.
type Account struct {
	Number     int64      `json:"number"`
	Name       string     `json:"name"`
	Currency   string     `json:"currency"`
	Leverage   int        `json:"leverage"`
	Balance    float64    `json:"balance"`
	Equity     float64    `json:"equity"`
	FreeMargin float64    `json:"free_margin"`
	Margin     float64    `json:"margin"`
	CreatedAt  *TradeTime `json:"created_at,omitempty"`
	UpdatedAt  *TradeTime `json:"updated_at,omitempty"`
}

// Pending-close entry states.
const (
	ActionPending  = 0
	ActionFinished = 1
)

// PendingClose is one entry of the close work queue.
type PendingClose struct {
	Ticket       int64 `json:"ticket"`
	ActionFinish int   `json:"action_finish"`
}
