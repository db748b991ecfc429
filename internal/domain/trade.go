package domain

import "time"

// TradeSource identifies where a trade record came from.
type TradeSource string

const (
	TradeSourceGeneric TradeSource = "generic"
	TradeSourceIBKR    TradeSource = "ibkr"
	TradeSourceManual  TradeSource = "manual"
)

// Side is the direction of a trade as written by the broker or the user.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
	SideBuy   Side = "buy"
	SideSell  Side = "sell"
)

// TradeStatus tracks whether a round trip has been closed.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

// Trade is a single journal entry. Generic CSV rows fill the entry fields and
// ProfitLoss; IBKR round trips additionally carry the exit fields once closed.
//
// Quantity is always a non-negative magnitude. ExitDate, ExitQuantity and
// ExitPrice are set if and only if Status is TradeStatusClosed for IBKR
// records.
type Trade struct {
	ID            int64       `json:"id"`
	UserID        string      `json:"user_id"`
	Source        TradeSource `json:"source"`
	ImportID      string      `json:"import_id,omitempty"`
	Symbol        string      `json:"symbol"`
	AssetCategory string      `json:"asset_category,omitempty"`
	Currency      string      `json:"currency,omitempty"`
	Side          Side        `json:"side,omitempty"`
	Date          time.Time   `json:"date"`
	RawDate       string      `json:"raw_date,omitempty"`
	Quantity      float64     `json:"quantity"`
	Price         float64     `json:"price"`
	ProfitLoss    *float64    `json:"profit_loss,omitempty"`
	ExitDate      *time.Time  `json:"exit_date,omitempty"`
	ExitQuantity  *float64    `json:"exit_quantity,omitempty"`
	ExitPrice     *float64    `json:"exit_price,omitempty"`
	Commission    float64     `json:"commission"`
	Status        TradeStatus `json:"status"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// PnL returns the realized profit or loss, treating an absent value as zero.
func (t Trade) PnL() float64 {
	if t.ProfitLoss == nil {
		return 0
	}
	return *t.ProfitLoss
}

// IsClosed reports whether the trade is a finished round trip.
func (t Trade) IsClosed() bool {
	return t.Status == TradeStatusClosed
}
