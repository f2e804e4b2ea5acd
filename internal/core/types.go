package core

import "strings"

// Region identifies which regional spreadsheet a record came from.
type Region string

const (
	RegionA Region = "A"
	RegionB Region = "B"
)

// Valid reports whether r is one of the known region tags.
func (r Region) Valid() bool {
	return r == RegionA || r == RegionB
}

// FieldType represents the storage type of an output column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
)

// Column names shared by the loader, transformer and sinks.
const (
	ColOrderID           = "OrderId"
	ColQuantityOrdered   = "QuantityOrdered"
	ColItemPrice         = "ItemPrice"
	ColPromotionDiscount = "PromotionDiscount"
	ColCurrencyCode      = "CurrencyCode"
	ColAmount            = "Amount"
	ColRegion            = "region"
	ColTotalSales        = "total_sales"
	ColNetSale           = "net_sale"
)

// Column describes one column of the persisted table.
type Column struct {
	Name string
	Type FieldType
}

// HeaderIndex maps column names (lowercase) to their position in a sheet row.
type HeaderIndex map[string]int

// Sheet is the raw tabular content of one spreadsheet.
// Header holds the column names as written in the file.
type Sheet struct {
	Source string
	Header []string
	Rows   [][]string

	// Lines holds the 1-based file line of each row. When nil, rows are
	// numbered consecutively from line 2.
	Lines []int
}

// line returns the file line of row i.
func (s *Sheet) line(i int) int {
	if i < len(s.Lines) {
		return s.Lines[i]
	}
	return i + 2
}

// Discount is the decoded PromotionDiscount cell.
type Discount struct {
	CurrencyCode string
	Amount       float64
}

// FlatRecord is a sheet row with its discount expanded and its region attached.
// QuantityOrdered and ItemPrice stay as written; the transformer parses them.
type FlatRecord struct {
	OrderID         string
	QuantityOrdered string
	ItemPrice       string
	Discount        Discount
	Region          Region

	// Extra holds passthrough sheet columns keyed by lowercased header name.
	Extra map[string]string

	// Line is the 1-based line number in the source file.
	Line int
}

// FlatTable is the flattened content of one region's sheet.
type FlatTable struct {
	Region Region
	Source string

	// Columns lists the flattened column names in output order:
	// sheet columns (PromotionDiscount removed), then CurrencyCode, Amount, region.
	Columns []string

	Records []FlatRecord
}

// SalesRecord is a combined record with derived sales metrics.
type SalesRecord struct {
	FlatRecord
	Quantity   float64
	Price      float64
	TotalSales float64
	NetSale    float64
}

// SalesTable is the terminal artifact handed to a sink.
type SalesTable struct {
	Columns []Column
	Records []SalesRecord
}

// Values returns the record's values in the order of cols.
// Empty passthrough cells become nil so sinks store NULL.
func (r SalesRecord) Values(cols []Column) []any {
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = r.value(c.Name)
	}
	return vals
}

func (r SalesRecord) value(name string) any {
	switch name {
	case ColOrderID:
		return r.OrderID
	case ColQuantityOrdered:
		return r.Quantity
	case ColItemPrice:
		return r.Price
	case ColCurrencyCode:
		return nullableText(r.Discount.CurrencyCode)
	case ColAmount:
		return r.Discount.Amount
	case ColRegion:
		return string(r.Region)
	case ColTotalSales:
		return r.TotalSales
	case ColNetSale:
		return r.NetSale
	}
	return nullableText(r.Extra[strings.ToLower(name)])
}

func nullableText(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Stats summarises what the transformer kept and dropped.
type Stats struct {
	RegionARows     int
	RegionBRows     int
	CombinedRows    int
	DuplicateRows   int
	NonPositiveRows int
	OutputRows      int
}
