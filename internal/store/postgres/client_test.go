package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://x", DSN(ClientConfig{DSN: "postgres://x", Host: "ignored"}))

	got := DSN(ClientConfig{Host: "db", User: "journal", Password: "p@ss", Database: "trades"})
	assert.Equal(t, "postgres://journal:p%40ss@db:5432/trades?sslmode=disable", got)

	got = DSN(ClientConfig{Host: "db", Port: 6543, User: "u", Database: "d", SSLMode: "require"})
	assert.Equal(t, "postgres://u:@db:6543/d?sslmode=require", got)
}

func TestMigrationFiles(t *testing.T) {
	names, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])

	data, err := migrationsFS.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS trades")
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS audit_log")
}

func TestTradeArgs_NullsZeroDate(t *testing.T) {
	args := tradeArgs(domain.Trade{UserID: "u1", Symbol: "AAPL", RawDate: "garbage"})
	require.Len(t, args, 18)
	assert.Nil(t, args[7].(*time.Time))
	assert.Equal(t, "garbage", args[8])

	d := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	args = tradeArgs(domain.Trade{Date: d})
	assert.Equal(t, d, *args[7].(*time.Time))
}

func TestListQuery(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 1, 0)

	q := newListQuery(`SELECT id FROM trades`, "u1").
		within("trade_date", domain.ListOpts{Since: &since, Until: &until}).
		orderedPage("trade_date DESC", domain.ListOpts{Limit: 50, Offset: 100})
	assert.Equal(t,
		`SELECT id FROM trades WHERE user_id = $1 AND trade_date >= $2 AND trade_date <= $3 ORDER BY trade_date DESC LIMIT $4 OFFSET $5`,
		q.String())
	assert.Equal(t, []any{"u1", since, until, 50, 100}, q.args)

	q = newListQuery(`SELECT id FROM audit_log`, "u2").
		within("created_at", domain.ListOpts{}).
		orderedPage("created_at DESC", domain.ListOpts{})
	assert.Equal(t, `SELECT id FROM audit_log WHERE user_id = $1 ORDER BY created_at DESC`, q.String())
	assert.Equal(t, []any{"u2"}, q.args)
}
