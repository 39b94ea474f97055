package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ncruces/go-sqlite3"
)

// Violation은 드라이버와 무관한 제약 조건 위반 분류입니다
type Violation int

const (
	ViolationNone Violation = iota
	ViolationUnique
	ViolationForeignKey
	ViolationNotNull
	ViolationCheck
	ViolationRange
)

func (v Violation) String() string {
	switch v {
	case ViolationUnique:
		return "unique"
	case ViolationForeignKey:
		return "foreign_key"
	case ViolationNotNull:
		return "not_null"
	case ViolationCheck:
		return "check"
	case ViolationRange:
		return "numeric_range"
	default:
		return "none"
	}
}

// Classify는 sqlite 확장 코드와 postgres SQLSTATE를 Violation으로 변환합니다
func Classify(err error) Violation {
	if err == nil {
		return ViolationNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ViolationUnique
		case "23503":
			return ViolationForeignKey
		case "23502":
			return ViolationNotNull
		case "23514":
			return ViolationCheck
		case "22003":
			return ViolationRange
		}
		return ViolationNone
	}

	switch {
	case errors.Is(err, sqlite3.CONSTRAINT_UNIQUE), errors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY):
		return ViolationUnique
	case errors.Is(err, sqlite3.CONSTRAINT_FOREIGNKEY):
		return ViolationForeignKey
	case errors.Is(err, sqlite3.CONSTRAINT_NOTNULL):
		return ViolationNotNull
	case errors.Is(err, sqlite3.CONSTRAINT_CHECK):
		return ViolationCheck
	case errors.Is(err, sqlite3.TOOBIG):
		return ViolationRange
	}
	return ViolationNone
}

// Detail은 postgres가 제공하는 위반 상세 메시지를 반환합니다
func Detail(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Detail
	}
	return ""
}

// JSONArg는 방언에 맞는 JSON 컬럼 바인딩 값을 반환합니다. 비어 있으면 NULL.
func (d *DB) JSONArg(raw []byte) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if d.Dialect == DialectPostgres {
		return raw
	}
	return string(raw)
}
