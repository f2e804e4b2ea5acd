package sink

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/salesetl/internal/core"
	"github.com/jackc/pgx/v5"
)

func init() {
	Register("postgres", func(dsn string) (Writer, error) {
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, openError("postgres", fmt.Errorf("parse database URL: %w", err))
		}
		return &Postgres{config: cfg}, nil
	})
}

// Postgres writes to a PostgreSQL database using the COPY protocol.
type Postgres struct {
	config *pgx.ConnConfig
}

func (p *Postgres) Driver() string { return "postgres" }

// source names the destination in errors without leaking credentials.
func (p *Postgres) source() string {
	return fmt.Sprintf("postgres://%s:%d/%s", p.config.Host, p.config.Port, p.config.Database)
}

// Replace implements Writer.
func (p *Postgres) Replace(ctx context.Context, table string, t *core.SalesTable) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}

	conn, err := pgx.ConnectConfig(ctx, p.config.Copy())
	if err != nil {
		return openError(p.source(), err)
	}
	defer conn.Close(context.Background())

	tx, err := conn.Begin(ctx)
	if err != nil {
		return writeError(p.source(), fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	ident := pgx.Identifier{table}.Sanitize()
	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+ident); err != nil {
		return writeError(p.source(), fmt.Errorf("drop table: %w", err))
	}
	create := fmt.Sprintf(`CREATE TABLE %s (%s)`, ident, columnDefs(t.Columns, postgresType))
	if _, err := tx.Exec(ctx, create); err != nil {
		return writeError(p.source(), fmt.Errorf("create table: %w", err))
	}

	rows := pgx.CopyFromSlice(len(t.Records), func(i int) ([]any, error) {
		return t.Records[i].Values(t.Columns), nil
	})
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columnNames(t.Columns), rows)
	if err != nil {
		return writeError(p.source(), fmt.Errorf("copy rows: %w", err))
	}
	if int(n) != len(t.Records) {
		return writeError(p.source(), fmt.Errorf("copied %d of %d rows", n, len(t.Records)))
	}

	if err := tx.Commit(ctx); err != nil {
		return writeError(p.source(), fmt.Errorf("commit: %w", err))
	}
	return nil
}

func postgresType(ft core.FieldType) string {
	if ft == core.FieldNumeric {
		return "DOUBLE PRECISION"
	}
	return "TEXT"
}
