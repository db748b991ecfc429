package statement

import (
	"math"
	"strings"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// genericMinFields is date, symbol, type, quantity and price.
const genericMinFields = 5

// ParseGeneric parses a header line followed by rows of
// date,symbol,type,quantity,price[,pnl].
//
// The first line is always treated as the header. Blank lines and rows with
// fewer than five fields are skipped. Malformed numbers never reject a row:
// quantity and price fall back to 0 and an unreadable pnl is treated as
// absent. Output order matches input order.
func ParseGeneric(text string) []domain.Trade {
	lines := strings.Split(text, "\n")
	trades := make([]domain.Trade, 0, len(lines))

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		parts, ok := splitRecord(line)
		if !ok || len(parts) < genericMinFields {
			continue
		}

		qty, _ := parseFloat(parts[3])
		price, _ := parseFloat(parts[4])

		t := domain.Trade{
			Source:   domain.TradeSourceGeneric,
			RawDate:  strings.TrimSpace(parts[0]),
			Date:     parseDate(parts[0]),
			Symbol:   strings.TrimSpace(parts[1]),
			Side:     domain.Side(strings.ToLower(strings.TrimSpace(parts[2]))),
			Quantity: math.Abs(qty),
			Price:    price,
			Status:   domain.TradeStatusOpen,
		}
		if len(parts) > 5 {
			if pnl, ok := parseFloat(parts[5]); ok {
				t.ProfitLoss = &pnl
				t.Status = domain.TradeStatusClosed
			}
		}

		trades = append(trades, t)
	}

	return trades
}
