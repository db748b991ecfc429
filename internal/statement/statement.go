// Package statement turns uploaded broker exports into journal trades.
//
// Two shapes are understood: a flat per-row CSV (date, symbol, type,
// quantity, price and an optional P&L column) and the Trades section of an
// Interactive Brokers activity statement, which is reconstructed into
// open/close round trips. Every parser is a pure function of its input.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// Format selects a parser.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatGeneric Format = "generic"
	FormatIBKR    Format = "ibkr"

	// FormatIBKRStatement reads the Trades section using the column order of
	// a full activity statement (see ActivityStatementLayout).
	FormatIBKRStatement Format = "ibkr_statement"
)

// ErrUnknownFormat is returned for a format name no parser handles.
var ErrUnknownFormat = errors.New("statement: unknown format")

// ParseFormat maps a user supplied name onto a Format. The empty string means
// auto detection.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "generic", "csv":
		return FormatGeneric, nil
	case "ibkr", "ib", "interactive_brokers":
		return FormatIBKR, nil
	case "ibkr_statement", "ibkr-statement":
		return FormatIBKRStatement, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, name)
	}
}

// Detect reports FormatIBKR when any line carries the activity statement
// trade prefix and FormatGeneric otherwise.
func Detect(text string) Format {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ibkrTradePrefix) {
			return FormatIBKR
		}
	}
	return FormatGeneric
}

// Parse runs the parser for f, resolving FormatAuto with Detect first. The
// returned format is the one actually used.
func Parse(text string, f Format) ([]domain.Trade, Format, error) {
	if f == FormatAuto || f == "" {
		f = Detect(text)
	}
	switch f {
	case FormatGeneric:
		return ParseGeneric(text), f, nil
	case FormatIBKR:
		return ParseIBKR(text), f, nil
	case FormatIBKRStatement:
		return ParseIBKRWithLayout(text, ActivityStatementLayout), f, nil
	default:
		return nil, f, fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
	}
}

// splitRecord parses one line as a quote-aware CSV record. Malformed lines
// report ok=false and are dropped by the callers.
func splitRecord(line string) ([]string, bool) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		return nil, false
	}
	return fields, true
}

// dateLayouts are tried in order; the first match wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02, 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02;150405",
	"01/02/2006",
	"20060102",
}

// parseDate returns the zero time when no layout matches.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseFloat returns ok=false for anything strconv cannot read, and for NaN
// or infinities.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
