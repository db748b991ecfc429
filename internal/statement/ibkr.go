package statement

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

const (
	ibkrTradePrefix = "Trades,Data,Order,"
	ibkrMinFields   = 14

	codeOpen  = "O"
	codeClose = "C"
)

// IBKRLayout gives the column index of each field read from a Trades data
// row. The open/close code is always read from the last field.
type IBKRLayout struct {
	AssetCategory int
	Currency      int
	Symbol        int
	DateTime      int
	Quantity      int
	Price         int
	Commission    int
	RealizedPnL   int
}

// DefaultIBKRLayout is the column contract of the activity statement import.
var DefaultIBKRLayout = IBKRLayout{
	AssetCategory: 2,
	Currency:      3,
	Symbol:        4,
	DateTime:      5,
	Quantity:      6,
	Price:         7,
	Commission:    10,
	RealizedPnL:   12,
}

// ActivityStatementLayout follows the Trades header of a complete activity
// statement: DataDiscriminator, Asset Category, Currency, Symbol, Date/Time,
// Quantity, T. Price, C. Price, Proceeds, Comm/Fee, Basis, Realized P/L,
// MTM P/L, Code.
var ActivityStatementLayout = IBKRLayout{
	AssetCategory: 3,
	Currency:      4,
	Symbol:        5,
	DateTime:      6,
	Quantity:      7,
	Price:         8,
	Commission:    11,
	RealizedPnL:   13,
}

// openPosition is the pending entry side of a round trip.
type openPosition struct {
	symbol        string
	assetCategory string
	currency      string
	rawDate       string
	quantity      decimal.Decimal
	price         decimal.Decimal
	commission    decimal.Decimal
}

// ParseIBKR reconstructs round trips from an IBKR activity statement using
// DefaultIBKRLayout.
func ParseIBKR(text string) []domain.Trade {
	return ParseIBKRWithLayout(text, DefaultIBKRLayout)
}

// ParseIBKRWithLayout reconstructs round trips from the Trades rows of an
// activity statement.
//
// Rows are grouped by symbol and asset category. An "O" row with a positive
// quantity opens (or replaces) the single pending position for its key; a "C"
// row with a negative quantity closes it. Closes with nothing pending are
// dropped. Closed trades are returned in the order their closing row appears,
// followed by the positions still open, in the order their key was first
// opened.
func ParseIBKRWithLayout(text string, layout IBKRLayout) []domain.Trade {
	var trades []domain.Trade
	pending := make(map[string]openPosition)
	var order []string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, ibkrTradePrefix) {
			continue
		}

		parts, ok := splitRecord(line)
		if !ok || len(parts) < ibkrMinFields || !layout.fits(len(parts)) {
			continue
		}

		assetCategory := strings.TrimSpace(parts[layout.AssetCategory])
		symbol := unquote(parts[layout.Symbol])
		rawDate := unquote(parts[layout.DateTime])
		code := strings.TrimSpace(parts[len(parts)-1])

		qty, qtyOK := parseDecimal(parts[layout.Quantity])
		if !qtyOK {
			continue
		}
		price, _ := parseDecimal(parts[layout.Price])
		commission, _ := parseDecimal(parts[layout.Commission])
		commission = commission.Abs()
		realized, _ := parseDecimal(parts[layout.RealizedPnL])

		key := symbol + "-" + assetCategory

		switch {
		case code == codeOpen && qty.IsPositive():
			if _, exists := pending[key]; !exists {
				order = append(order, key)
			}
			pending[key] = openPosition{
				symbol:        symbol,
				assetCategory: assetCategory,
				currency:      strings.TrimSpace(parts[layout.Currency]),
				rawDate:       rawDate,
				quantity:      qty.Abs(),
				price:         price,
				commission:    commission,
			}

		case code == codeClose && qty.IsNegative():
			open, exists := pending[key]
			if !exists {
				continue
			}
			trades = append(trades, closedTrade(open, rawDate, qty.Abs(), price, commission, realized))
			delete(pending, key)
			order = removeKey(order, key)
		}
	}

	for _, key := range order {
		trades = append(trades, openTrade(pending[key]))
	}

	return trades
}

func (l IBKRLayout) fits(n int) bool {
	for _, idx := range []int{
		l.AssetCategory, l.Currency, l.Symbol, l.DateTime,
		l.Quantity, l.Price, l.Commission, l.RealizedPnL,
	} {
		if idx < 0 || idx >= n {
			return false
		}
	}
	return true
}

func openTrade(p openPosition) domain.Trade {
	zero := 0.0
	return domain.Trade{
		Source:        domain.TradeSourceIBKR,
		Symbol:        p.symbol,
		AssetCategory: p.assetCategory,
		Currency:      p.currency,
		Side:          domain.SideLong,
		Date:          parseDate(p.rawDate),
		RawDate:       p.rawDate,
		Quantity:      p.quantity.InexactFloat64(),
		Price:         p.price.InexactFloat64(),
		ProfitLoss:    &zero,
		Commission:    p.commission.InexactFloat64(),
		Status:        domain.TradeStatusOpen,
	}
}

func closedTrade(p openPosition, rawExit string, qty, price, commission, realized decimal.Decimal) domain.Trade {
	t := openTrade(p)

	exitDate := parseDate(rawExit)
	exitQty := qty.InexactFloat64()
	exitPrice := price.InexactFloat64()
	pnl := realized.InexactFloat64()

	t.ExitDate = &exitDate
	t.ExitQuantity = &exitQty
	t.ExitPrice = &exitPrice
	t.Commission = p.commission.Add(commission).InexactFloat64()
	t.ProfitLoss = &pnl
	t.Status = domain.TradeStatusClosed
	return t
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

func unquote(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// parseDecimal strips thousands separators; blank or unreadable input yields
// zero with ok=false.
func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
