package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/JonMunkholm/salesetl/internal/core"
	_ "modernc.org/sqlite"
)

func init() {
	Register("sqlite", func(dsn string) (Writer, error) {
		return &SQLite{path: dsn}, nil
	})
}

// SQLite writes to a SQLite database file.
type SQLite struct {
	path string
}

func (s *SQLite) Driver() string { return "sqlite" }

// Replace implements Writer.
func (s *SQLite) Replace(ctx context.Context, table string, t *core.SalesTable) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return openError(s.path, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return openError(s.path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return writeError(s.path, fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(table)); err != nil {
		return writeError(s.path, fmt.Errorf("drop table: %w", err))
	}
	create := fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(table), columnDefs(t.Columns, sqliteType))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return writeError(s.path, fmt.Errorf("create table: %w", err))
	}

	quoted := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		quoted[i] = quoteIdent(c.Name)
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(t.Columns)), ",")
	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(table), strings.Join(quoted, ","), placeholders)

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return writeError(s.path, fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	for _, rec := range t.Records {
		if _, err := stmt.ExecContext(ctx, rec.Values(t.Columns)...); err != nil {
			return writeError(s.path, fmt.Errorf("insert order %s: %w", rec.OrderID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return writeError(s.path, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func sqliteType(ft core.FieldType) string {
	if ft == core.FieldNumeric {
		return "REAL"
	}
	return "TEXT"
}
