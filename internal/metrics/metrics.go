// Package metrics computes the dashboard statistics over a user's trade
// history. Every function is a linear scan over the slice it is given and is
// sensitive to input order; callers sort by date ascending beforehand.
package metrics

import (
	"math"
	"sort"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

const millisPerDay = 1000 * 60 * 60 * 24

// Calculate returns the full statistics record for trades. An empty slice
// yields the zero Metrics value.
func Calculate(trades []domain.Trade) domain.Metrics {
	wins, losses := partition(trades)
	return domain.Metrics{
		TotalTrades:          len(trades),
		WinningTrades:        len(wins),
		LosingTrades:         len(losses),
		WinRate:              WinRate(trades),
		AverageWin:           mean(wins),
		AverageLoss:          mean(losses),
		MaxDrawdown:          MaxDrawdown(trades),
		TotalReturn:          TotalReturn(trades),
		AverageHoldingPeriod: AverageHoldingPeriod(trades),
		MostTradedAsset:      MostTradedAsset(trades),
		ProfitFactor:         profitFactor(wins, losses),
	}
}

// WinRate is the share of trades with a positive P&L. It is 0 for an empty
// slice instead of NaN.
func WinRate(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins, _ := partition(trades)
	return float64(len(wins)) / float64(len(trades))
}

// AverageWin is the mean positive P&L, or 0 without winners.
func AverageWin(trades []domain.Trade) float64 {
	wins, _ := partition(trades)
	return mean(wins)
}

// AverageLoss is the mean negative P&L (so it is negative), or 0 without
// losers.
func AverageLoss(trades []domain.Trade) float64 {
	_, losses := partition(trades)
	return mean(losses)
}

// MaxDrawdown walks the cumulative P&L in input order and returns the largest
// fall from a running peak. The peak starts at zero.
func MaxDrawdown(trades []domain.Trade) float64 {
	var maxDrawdown, peak, running float64
	for _, t := range trades {
		pnl := t.PnL()
		if pnl == 0 {
			continue
		}
		running += pnl
		if running > peak {
			peak = running
		}
		maxDrawdown = math.Max(maxDrawdown, peak-running)
	}
	return maxDrawdown
}

// TotalReturn sums every P&L, counting absent values as zero.
func TotalReturn(trades []domain.Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += t.PnL()
	}
	return sum
}

// AverageHoldingPeriod is the mean gap in days between each trade and the
// one before it in input order. Non-positive gaps and gaps touching an
// undated trade are discarded. This is spacing between consecutive trades, not
// the duration of any one position.
func AverageHoldingPeriod(trades []domain.Trade) float64 {
	var periods []float64
	for i := 1; i < len(trades); i++ {
		prev, cur := trades[i-1].Date, trades[i].Date
		if prev.IsZero() || cur.IsZero() {
			continue
		}
		gap := cur.Sub(prev).Milliseconds()
		if gap > 0 {
			periods = append(periods, float64(gap))
		}
	}
	return mean(periods) / millisPerDay
}

// MostTradedAsset returns the symbol with the most trades. Ties go to the
// symbol seen first. It returns "" for an empty slice.
func MostTradedAsset(trades []domain.Trade) string {
	type entry struct {
		symbol string
		count  int
	}

	index := make(map[string]int)
	var counts []entry
	for _, t := range trades {
		i, ok := index[t.Symbol]
		if !ok {
			i = len(counts)
			index[t.Symbol] = i
			counts = append(counts, entry{symbol: t.Symbol})
		}
		counts[i].count++
	}
	if len(counts) == 0 {
		return ""
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	return counts[0].symbol
}

// ProfitFactor is gross profit over gross loss. With no losses it returns the
// gross profit itself rather than infinity.
func ProfitFactor(trades []domain.Trade) float64 {
	wins, losses := partition(trades)
	return profitFactor(wins, losses)
}

// EquityCurve returns the cumulative P&L after each dated trade, in input
// order. Undated trades add no point but still count toward the running total.
func EquityCurve(trades []domain.Trade) []domain.EquityPoint {
	points := make([]domain.EquityPoint, 0, len(trades))
	var running float64
	for _, t := range trades {
		running += t.PnL()
		if t.Date.IsZero() {
			continue
		}
		points = append(points, domain.EquityPoint{
			Date:       t.Date,
			Symbol:     t.Symbol,
			PnL:        t.PnL(),
			Cumulative: running,
		})
	}
	return points
}

func profitFactor(wins, losses []float64) float64 {
	profits := sum(wins)
	lossTotal := math.Abs(sum(losses))
	if lossTotal == 0 {
		return profits
	}
	return profits / lossTotal
}

// partition splits out the strictly positive and strictly negative P&L
// values; zero and absent results belong to neither.
func partition(trades []domain.Trade) (wins, losses []float64) {
	for _, t := range trades {
		switch pnl := t.PnL(); {
		case pnl > 0:
			wins = append(wins, pnl)
		case pnl < 0:
			losses = append(losses, pnl)
		}
	}
	return wins, losses
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}
