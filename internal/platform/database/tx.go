package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Querier는 *sql.DB와 *sql.Tx가 공통으로 제공하는 메서드입니다
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx는 fn을 하나의 트랜잭션 안에서 실행합니다. fn이 에러를 반환하면 롤백한다.
// sqlite는 커넥션이 하나뿐이므로 fn 안에서는 반드시 tx만 사용해야 한다.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LikeOp는 대소문자를 구분하지 않는 LIKE 연산자를 반환합니다
func (d *DB) LikeOp() string {
	if d.Dialect == DialectPostgres {
		return "ILIKE"
	}
	return "LIKE"
}

// Rebind는 '?' placeholder를 방언에 맞게 바꿉니다
func (d *DB) Rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}
	out, err := sq.Dollar.ReplacePlaceholders(query)
	if err != nil {
		return query
	}
	return out
}
