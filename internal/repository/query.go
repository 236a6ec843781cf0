package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// ErrDuplicate is returned when a uniqueness rule is violated inside a
// locked check-then-act sequence.
var ErrDuplicate = errors.New("duplicate record")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// psql builds Postgres-flavoured statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// normalizePage applies default and maximum page sizes and returns the offset.
func normalizePage(page, pageSize int) (int, int, uint64) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize, uint64((page - 1) * pageSize)
}

// pagedSelect describes a filtered list query over a single table or join.
type pagedSelect struct {
	columns  string
	from     string
	where    squirrel.And
	orderBy  string
	page     int
	pageSize int
}

// run executes the page query into dest and returns the total row count.
func (q pagedSelect) run(ctx context.Context, db sqlx.QueryerContext, dest interface{}) (int, error) {
	_, pageSize, offset := normalizePage(q.page, q.pageSize)

	list := psql.Select(q.columns).From(q.from)
	count := psql.Select("COUNT(*)").From(q.from)
	if len(q.where) > 0 {
		list = list.Where(q.where)
		count = count.Where(q.where)
	}
	if q.orderBy != "" {
		list = list.OrderBy(q.orderBy)
	}
	list = list.Limit(uint64(pageSize)).Offset(offset)

	listSQL, args, err := list.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build list query: %w", err)
	}
	if err := sqlx.SelectContext(ctx, db, dest, listSQL, args...); err != nil {
		return 0, fmt.Errorf("list %s: %w", q.from, err)
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, db, &total, countSQL, countArgs...); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.from, err)
	}
	return total, nil
}

// ilike matches a case-insensitive substring.
func ilike(column, term string) squirrel.Sqlizer {
	return squirrel.ILike{column: "%" + term + "%"}
}

// requireAffected turns a zero-row write into sql.ErrNoRows so callers can map
// it to a not-found error.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// lockRow loads one row with SELECT ... FOR UPDATE inside tx.
func lockRow(ctx context.Context, tx *sqlx.Tx, dest interface{}, query string, args ...interface{}) error {
	if err := tx.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock row: %w", err)
	}
	return nil
}
