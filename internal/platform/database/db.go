package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"taeu.kr/kirosumi/internal/config"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB는 *sql.DB에 SQL 방언 정보를 더한 핸들입니다
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Builder는 방언에 맞는 placeholder를 쓰는 squirrel 빌더를 반환합니다
func (d *DB) Builder() sq.StatementBuilderType {
	if d.Dialect == DialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func NewDB() (*DB, error) {
	dialect, err := ParseDialect(config.Conf.Datasource.Driver)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Open(ctx, dialect, config.Conf.Datasource.URL)
	if err != nil {
		return nil, err
	}

	// Run migrations (Schema setup.. etc)
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Open은 마이그레이션 없이 연결만 수립합니다
func Open(ctx context.Context, dialect Dialect, url string) (*DB, error) {
	var (
		raw *sql.DB
		err error
	)

	switch dialect {
	case DialectPostgres:
		raw, err = sql.Open("pgx", url)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		raw.SetConnMaxIdleTime(5 * time.Minute)
		raw.SetConnMaxLifetime(30 * time.Minute)
		raw.SetMaxIdleConns(10)
		raw.SetMaxOpenConns(20)
	default:
		if dir := filepath.Dir(url); url != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		raw, err = sql.Open("sqlite3", sqliteDSN(url))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// sqlite는 단일 writer이므로 커넥션 하나로 직렬화한다. in-memory DB도 같은 커넥션을 유지해야 한다.
		raw.SetMaxOpenConns(1)
		raw.SetMaxIdleConns(1)
		raw.SetConnMaxLifetime(0)
		raw.SetConnMaxIdleTime(0)
	}

	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: raw, Dialect: dialect}, nil
}

// sqliteDSN은 모든 커넥션에서 foreign key가 켜지도록 pragma를 붙입니다
func sqliteDSN(url string) string {
	if strings.Contains(url, "_pragma=") {
		return url
	}
	if !strings.HasPrefix(url, "file:") {
		url = "file:" + url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// OpenMemory는 마이그레이션된 in-memory sqlite DB를 엽니다. 테스트와 임시 실행에 사용합니다.
func OpenMemory(ctx context.Context) (*DB, error) {
	db, err := Open(ctx, DialectSQLite, ":memory:")
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Now는 저장용 타임스탬프를 반환합니다
func Now() Timestamp {
	return Timestamp{Time: time.Now().UTC().Truncate(time.Microsecond)}
}
