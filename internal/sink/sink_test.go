package sink

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/JonMunkholm/salesetl/internal/core"
)

func sampleTable() *core.SalesTable {
	cols := []core.Column{
		{Name: "OrderId", Type: core.FieldText},
		{Name: "Customer Name", Type: core.FieldText},
		{Name: "QuantityOrdered", Type: core.FieldNumeric},
		{Name: "ItemPrice", Type: core.FieldNumeric},
		{Name: "CurrencyCode", Type: core.FieldText},
		{Name: "Amount", Type: core.FieldNumeric},
		{Name: "region", Type: core.FieldText},
		{Name: "total_sales", Type: core.FieldNumeric},
		{Name: "net_sale", Type: core.FieldNumeric},
	}
	rec := func(id, customer string, qty, price, amount float64, region core.Region) core.SalesRecord {
		return core.SalesRecord{
			FlatRecord: core.FlatRecord{
				OrderID:  id,
				Discount: core.Discount{CurrencyCode: "USD", Amount: amount},
				Region:   region,
				Extra:    map[string]string{"customer name": customer},
			},
			Quantity:   qty,
			Price:      price,
			TotalSales: qty * price,
			NetSale:    qty*price - amount,
		}
	}
	return &core.SalesTable{
		Columns: cols,
		Records: []core.SalesRecord{
			rec("1", "acme", 2, 5.5, 1, core.RegionA),
			rec("3", "", 1, 20, 0, core.RegionB),
		},
	}
}

// dump returns the column names and every row of table, ordered by rowid.
func dump(t *testing.T, path, table string) ([]string, [][]any) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT * FROM ` + quoteIdent(table) + ` ORDER BY rowid`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		t.Fatalf("columns: %v", err)
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return cols, out
}

func openSQLite(t *testing.T) (Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.db")
	w, err := Open("sqlite", path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return w, path
}

func TestSQLite_Replace(t *testing.T) {
	w, path := openSQLite(t)

	if err := w.Replace(context.Background(), "sales_data", sampleTable()); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	cols, rows := dump(t, path, "sales_data")
	wantCols := []string{"OrderId", "Customer Name", "QuantityOrdered", "ItemPrice", "CurrencyCode", "Amount", "region", "total_sales", "net_sale"}
	if !slices.Equal(cols, wantCols) {
		t.Errorf("columns = %v, want %v", cols, wantCols)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first[0] != "1" || first[1] != "acme" || first[6] != "A" {
		t.Errorf("row 1 = %v", first)
	}
	if first[7] != 11.0 || first[8] != 10.0 {
		t.Errorf("row 1 metrics = %v, %v, want 11, 10", first[7], first[8])
	}
	if rows[1][1] != nil {
		t.Errorf("empty passthrough cell = %v, want NULL", rows[1][1])
	}
}

func TestSQLite_ReplaceIsIdempotent(t *testing.T) {
	w, path := openSQLite(t)
	ctx := context.Background()

	if err := w.Replace(ctx, "sales_data", sampleTable()); err != nil {
		t.Fatalf("first Replace() error = %v", err)
	}
	cols1, rows1 := dump(t, path, "sales_data")

	if err := w.Replace(ctx, "sales_data", sampleTable()); err != nil {
		t.Fatalf("second Replace() error = %v", err)
	}
	cols2, rows2 := dump(t, path, "sales_data")

	if !reflect.DeepEqual(cols1, cols2) || !reflect.DeepEqual(rows1, rows2) {
		t.Errorf("table changed between identical runs:\n%v %v\n%v %v", cols1, rows1, cols2, rows2)
	}
}

func TestSQLite_ReplaceDropsPriorSchema(t *testing.T) {
	w, path := openSQLite(t)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range []string{
		`CREATE TABLE sales_data (legacy TEXT)`,
		`INSERT INTO sales_data VALUES ('old')`,
	} {
		if _, err := db.Exec(q); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	if err := w.Replace(context.Background(), "sales_data", sampleTable()); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	cols, rows := dump(t, path, "sales_data")
	if slices.Contains(cols, "legacy") {
		t.Errorf("legacy column survived: %v", cols)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestSQLite_EmptyTable(t *testing.T) {
	w, path := openSQLite(t)
	table := sampleTable()
	table.Records = nil

	if err := w.Replace(context.Background(), "sales_data", table); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	cols, rows := dump(t, path, "sales_data")
	if len(cols) != len(table.Columns) || len(rows) != 0 {
		t.Errorf("got %d columns and %d rows, want %d and 0", len(cols), len(rows), len(table.Columns))
	}
}

func TestSQLite_Errors(t *testing.T) {
	t.Run("invalid table name", func(t *testing.T) {
		w, _ := openSQLite(t)
		err := w.Replace(context.Background(), "sales; DROP TABLE x", sampleTable())
		if !errors.Is(err, core.ErrInvalidTable) {
			t.Errorf("error = %v, want ErrInvalidTable", err)
		}
		if core.CodeOf(err) != core.CodeInvalidTable {
			t.Errorf("code = %s, want %s", core.CodeOf(err), core.CodeInvalidTable)
		}
	})

	t.Run("unwritable destination", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "sales.db")
		w, err := Open("sqlite", path)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		err = w.Replace(context.Background(), "sales_data", sampleTable())
		if err == nil {
			t.Fatal("Replace() expected error")
		}
		if core.StageOf(err) != core.StageSink {
			t.Errorf("stage = %s, want sink", core.StageOf(err))
		}
		if _, statErr := os.Stat(path); statErr == nil {
			t.Error("database file should not exist")
		}
	})
}

func TestOpen(t *testing.T) {
	if _, err := Open("oracle", "x"); core.CodeOf(err) != core.CodeSinkOpen {
		t.Errorf("unknown driver error = %v, want %s", err, core.CodeSinkOpen)
	}
	if _, err := Open("sqlite", "  "); core.CodeOf(err) != core.CodeSinkOpen {
		t.Errorf("empty dsn error = %v, want %s", err, core.CodeSinkOpen)
	}

	w, err := Open("SQLite", "x.db")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if w.Driver() != "sqlite" {
		t.Errorf("Driver() = %q, want sqlite", w.Driver())
	}

	if got := Drivers(); !slices.Equal(got, []string{"postgres", "sqlite"}) {
		t.Errorf("Drivers() = %v", got)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register() with a duplicate name should panic")
		}
	}()
	Register("sqlite", nil)
}

func TestValidateTableName(t *testing.T) {
	for name, ok := range map[string]bool{
		"sales_data":   true,
		"_staging2":    true,
		"SalesData":    true,
		"":             false,
		"2sales":       false,
		"sales-data":   false,
		"sales data":   false,
		`sales"; --`:   false,
		"public.sales": false,
	} {
		err := ValidateTableName(name)
		if (err == nil) != ok {
			t.Errorf("ValidateTableName(%q) = %v, want ok=%v", name, err, ok)
		}
	}
}
