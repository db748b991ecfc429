package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

const genericHeader = "date,symbol,type,quantity,price,pnl\n"

func TestParseGeneric_SingleRow(t *testing.T) {
	trades := ParseGeneric(genericHeader + "2025-01-01,AAPL,long,10,150.00,25.00")

	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, "AAPL", tr.Symbol)
	assert.Equal(t, domain.SideLong, tr.Side)
	assert.Equal(t, 10.0, tr.Quantity)
	assert.Equal(t, 150.0, tr.Price)
	require.NotNil(t, tr.ProfitLoss)
	assert.Equal(t, 25.0, *tr.ProfitLoss)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), tr.Date)
	assert.Equal(t, domain.TradeSourceGeneric, tr.Source)
	assert.Equal(t, domain.TradeStatusClosed, tr.Status)
}

func TestParseGeneric_SkipsHeaderBlankAndShortRows(t *testing.T) {
	text := "2025-01-01,HEADER,long,1,1\n" +
		"\n" +
		"2025-01-02,MSFT,short,5,400\n" +
		"   \n" +
		"2025-01-03,TSLA,long\n" +
		"2025-01-04,NVDA,SELL,-3,120.5,-12\r\n"

	trades := ParseGeneric(text)

	require.Len(t, trades, 2)
	assert.Equal(t, "MSFT", trades[0].Symbol)
	assert.Nil(t, trades[0].ProfitLoss)
	assert.Equal(t, domain.TradeStatusOpen, trades[0].Status)

	assert.Equal(t, "NVDA", trades[1].Symbol)
	assert.Equal(t, domain.SideSell, trades[1].Side)
	assert.Equal(t, 3.0, trades[1].Quantity, "quantity is sign-stripped")
	require.NotNil(t, trades[1].ProfitLoss)
	assert.Equal(t, -12.0, *trades[1].ProfitLoss)
}

func TestParseGeneric_MalformedNumbersBecomeZero(t *testing.T) {
	trades := ParseGeneric(genericHeader + "2025-01-01,AAPL,long,ten,abc,oops")

	require.Len(t, trades, 1)
	assert.Equal(t, 0.0, trades[0].Quantity)
	assert.Equal(t, 0.0, trades[0].Price)
	assert.Nil(t, trades[0].ProfitLoss)
}

func TestParseGeneric_EmptyPnLIsAbsent(t *testing.T) {
	trades := ParseGeneric(genericHeader + "2025-01-01,AAPL,long,1,2,")

	require.Len(t, trades, 1)
	assert.Nil(t, trades[0].ProfitLoss)
}

func TestParseGeneric_PreservesOrderAndRawDate(t *testing.T) {
	text := genericHeader +
		"not-a-date,B,long,1,1\n" +
		"01/15/2025,A,long,1,1\n" +
		"20250116,C,long,1,1\n"

	trades := ParseGeneric(text)

	require.Len(t, trades, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{trades[0].Symbol, trades[1].Symbol, trades[2].Symbol})
	assert.True(t, trades[0].Date.IsZero())
	assert.Equal(t, "not-a-date", trades[0].RawDate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), trades[1].Date)
	assert.Equal(t, time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), trades[2].Date)
}

func TestParseGeneric_QuotedFields(t *testing.T) {
	trades := ParseGeneric(genericHeader + `2025-01-01,"BRK,B",long,2,"410.5",1`)

	require.Len(t, trades, 1)
	assert.Equal(t, "BRK,B", trades[0].Symbol)
	assert.Equal(t, 410.5, trades[0].Price)
}

func TestParseGeneric_HeaderOnly(t *testing.T) {
	assert.Empty(t, ParseGeneric(genericHeader))
	assert.Empty(t, ParseGeneric(""))
}
