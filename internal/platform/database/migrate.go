package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed queries/schema.sql
var sqliteSchemaDDL string

//go:embed queries/schema_postgres.sql
var postgresSchemaDDL string

func Migrate(ctx context.Context, db *DB) error {
	ddl := sqliteSchemaDDL
	if db.Dialect == DialectPostgres {
		ddl = postgresSchemaDDL
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply %s schema: %w", db.Dialect, err)
	}
	return nil
}
