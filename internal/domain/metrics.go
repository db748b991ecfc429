package domain

import "time"

// Metrics is the fixed-shape summary rendered by the dashboard.
type Metrics struct {
	TotalTrades          int     `json:"total_trades"`
	WinningTrades        int     `json:"winning_trades"`
	LosingTrades         int     `json:"losing_trades"`
	WinRate              float64 `json:"win_rate"`
	AverageWin           float64 `json:"average_win"`
	AverageLoss          float64 `json:"average_loss"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	TotalReturn          float64 `json:"total_return"`
	AverageHoldingPeriod float64 `json:"average_holding_period_days"`
	MostTradedAsset      string  `json:"most_traded_asset"`
	ProfitFactor         float64 `json:"profit_factor"`
}

// EquityPoint is one sample of the cumulative P&L curve.
type EquityPoint struct {
	Date       time.Time `json:"date"`
	Symbol     string    `json:"symbol"`
	PnL        float64   `json:"pnl"`
	Cumulative float64   `json:"cumulative"`
}
