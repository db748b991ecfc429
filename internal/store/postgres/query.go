package postgres

import (
	"strconv"
	"strings"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// listQuery builds the per-user list statements: a base SELECT scoped to one
// user, optional time bounds on a column, an ORDER BY and LIMIT/OFFSET.
type listQuery struct {
	sql  strings.Builder
	args []any
}

// newListQuery starts "<selectFrom> WHERE user_id = $1".
func newListQuery(selectFrom, userID string) *listQuery {
	q := &listQuery{}
	q.sql.WriteString(selectFrom)
	q.sql.WriteString(" WHERE user_id = ")
	q.sql.WriteString(q.arg(userID))
	return q
}

// arg binds v and returns its placeholder.
func (q *listQuery) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

// within restricts col to [opts.Since, opts.Until].
func (q *listQuery) within(col string, opts domain.ListOpts) *listQuery {
	if opts.Since != nil {
		q.sql.WriteString(" AND " + col + " >= " + q.arg(*opts.Since))
	}
	if opts.Until != nil {
		q.sql.WriteString(" AND " + col + " <= " + q.arg(*opts.Until))
	}
	return q
}

// orderedPage appends the ORDER BY clause and the page bounds.
func (q *listQuery) orderedPage(orderBy string, opts domain.ListOpts) *listQuery {
	q.sql.WriteString(" ORDER BY " + orderBy)
	if opts.Limit > 0 {
		q.sql.WriteString(" LIMIT " + q.arg(opts.Limit))
	}
	if opts.Offset > 0 {
		q.sql.WriteString(" OFFSET " + q.arg(opts.Offset))
	}
	return q
}

func (q *listQuery) String() string { return q.sql.String() }
