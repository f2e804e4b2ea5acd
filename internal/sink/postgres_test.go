package sink

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
)

// postgresURL returns the test database URL or skips the test.
func postgresURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("SALESETL_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("SALESETL_TEST_POSTGRES_URL not set")
	}
	return url
}

func TestPostgres_Replace(t *testing.T) {
	url := postgresURL(t)
	ctx := context.Background()

	w, err := Open("postgres", url)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	const table = "salesetl_test_sales"
	for run := 1; run <= 2; run++ {
		if err := w.Replace(ctx, table, sampleTable()); err != nil {
			t.Fatalf("Replace() run %d error = %v", run, err)
		}
	}

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close(ctx)
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `DROP TABLE IF EXISTS `+table)
	})

	var count int
	var net float64
	err = conn.QueryRow(ctx, `SELECT count(*), sum(net_sale) FROM `+table).Scan(&count, &net)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 after two identical runs", count)
	}
	if net != 30 {
		t.Errorf("sum(net_sale) = %v, want 30", net)
	}
}

func TestPostgres_InvalidURL(t *testing.T) {
	if _, err := Open("postgres", "postgres://user@host:notaport/db"); err == nil {
		t.Error("Open() expected error for malformed URL")
	}
}
