package core

import (
	"fmt"
	"strings"
)

// Transform merges the two regions, derives total_sales and net_sale,
// keeps the first record per OrderId and drops records whose net sale is
// not positive. Region A records precede region B records in the result.
func Transform(a, b *FlatTable) (*SalesTable, Stats, error) {
	var stats Stats
	if a == nil || b == nil {
		return nil, stats, NewStageError(StageTransform, CodeMissingRegion, "", 0,
			fmt.Errorf("%w: both region tables are required", ErrMissingRegion))
	}

	if ok, onlyA, onlyB := sameColumnSet(a.Columns, b.Columns); !ok {
		return nil, stats, NewStageError(StageTransform, CodeColumnMismatch, "", 0,
			fmt.Errorf("%w: only in %s: [%s], only in %s: [%s]", ErrColumnMismatch,
				a.Source, strings.Join(onlyA, ", "), b.Source, strings.Join(onlyB, ", ")))
	}

	stats.RegionARows = len(a.Records)
	stats.RegionBRows = len(b.Records)
	stats.CombinedRows = stats.RegionARows + stats.RegionBRows

	combined := make([]SalesRecord, 0, stats.CombinedRows)
	for _, t := range []*FlatTable{a, b} {
		for _, rec := range t.Records {
			sr, err := derive(rec)
			if err != nil {
				return nil, stats, NewStageError(StageTransform, CodeNonNumericMetric, t.Source, rec.Line, err)
			}
			combined = append(combined, sr)
		}
	}

	deduped := make([]SalesRecord, 0, len(combined))
	seen := make(map[string]struct{}, len(combined))
	for _, rec := range combined {
		if _, dup := seen[rec.OrderID]; dup {
			stats.DuplicateRows++
			continue
		}
		seen[rec.OrderID] = struct{}{}
		deduped = append(deduped, rec)
	}

	out := deduped[:0]
	for _, rec := range deduped {
		if rec.NetSale <= 0 {
			stats.NonPositiveRows++
			continue
		}
		out = append(out, rec)
	}
	stats.OutputRows = len(out)

	return &SalesTable{
		Columns: outputColumns(a.Columns),
		Records: out,
	}, stats, nil
}

// derive parses the quantity and price of rec and computes its sales metrics.
func derive(rec FlatRecord) (SalesRecord, error) {
	qty, err := ParseNumeric(rec.QuantityOrdered)
	if err != nil {
		return SalesRecord{}, fmt.Errorf("%s: %w", ColQuantityOrdered, err)
	}
	price, err := ParseNumeric(rec.ItemPrice)
	if err != nil {
		return SalesRecord{}, fmt.Errorf("%s: %w", ColItemPrice, err)
	}

	total := qty * price
	return SalesRecord{
		FlatRecord: rec,
		Quantity:   qty,
		Price:      price,
		TotalSales: total,
		NetSale:    total - rec.Discount.Amount,
	}, nil
}

// outputColumns types the flattened columns and appends the derived metrics.
func outputColumns(flat []string) []Column {
	cols := make([]Column, 0, len(flat)+2)
	for _, name := range flat {
		cols = append(cols, Column{Name: name, Type: columnType(name)})
	}
	return append(cols,
		Column{Name: ColTotalSales, Type: FieldNumeric},
		Column{Name: ColNetSale, Type: FieldNumeric},
	)
}

func columnType(name string) FieldType {
	switch name {
	case ColQuantityOrdered, ColItemPrice, ColAmount, ColTotalSales, ColNetSale:
		return FieldNumeric
	}
	return FieldText
}
