package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// reservedColumns are produced by flattening or by the transformer.
// A sheet column with one of these names is shadowed and dropped.
var reservedColumns = map[string]bool{
	strings.ToLower(ColCurrencyCode): true,
	strings.ToLower(ColAmount):       true,
	ColRegion:                        true,
	ColTotalSales:                    true,
	ColNetSale:                       true,
}

// Flatten expands the PromotionDiscount column of sheet into CurrencyCode and
// Amount, drops that column and tags every record with region.
// Any malformed row fails the whole sheet.
func Flatten(sheet *Sheet, region Region) (*FlatTable, error) {
	if !region.Valid() {
		return nil, NewStageError(StageLoad, CodeInvalidRegion, sheet.Source, 0,
			fmt.Errorf("%w: %q", ErrInvalidRegion, region))
	}

	idx, err := ValidateHeaders(sheet.Header, RequiredColumns)
	if err != nil {
		return nil, NewStageError(StageLoad, CodeMissingColumn, sheet.Source, 0, err)
	}

	columns, passthrough := flattenColumns(sheet)

	table := &FlatTable{
		Region:  region,
		Source:  sheet.Source,
		Columns: columns,
		Records: make([]FlatRecord, 0, len(sheet.Rows)),
	}

	for i, row := range sheet.Rows {
		line := sheet.line(i)
		if isEmptyRow(row) {
			continue
		}

		orderID := idx.cell(row, ColOrderID)
		if orderID == "" {
			return nil, NewStageError(StageLoad, CodeEmptyOrderID, sheet.Source, line, ErrEmptyOrderID)
		}

		discount, err := DecodeDiscount(idx.rawCell(row, ColPromotionDiscount))
		if err != nil {
			code := CodeMalformedDiscount
			if errors.Is(err, ErrNonNumeric) {
				code = CodeNonNumericAmount
			}
			return nil, NewStageError(StageLoad, code, sheet.Source, line, err)
		}

		extra := make(map[string]string, len(passthrough))
		for key, pos := range passthrough {
			if pos < len(row) {
				extra[key] = strings.TrimSpace(row[pos])
			}
		}

		table.Records = append(table.Records, FlatRecord{
			OrderID:         orderID,
			QuantityOrdered: idx.cell(row, ColQuantityOrdered),
			ItemPrice:       idx.cell(row, ColItemPrice),
			Discount:        discount,
			Region:          region,
			Extra:           extra,
			Line:            line,
		})
	}

	return table, nil
}

// flattenColumns returns the flattened column list and the positions of the
// passthrough (non-required) sheet columns keyed by lowercased name.
func flattenColumns(sheet *Sheet) ([]string, map[string]int) {
	canonical := make(map[string]string, len(RequiredColumns))
	for _, c := range RequiredColumns {
		canonical[strings.ToLower(c)] = c
	}

	columns := make([]string, 0, len(sheet.Header)+2)
	passthrough := make(map[string]int)
	seen := make(map[string]bool, len(sheet.Header))

	for i, h := range sheet.Header {
		name := CleanCell(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		key := strings.ToLower(name)

		switch {
		case seen[key]:
			slog.Warn("dropping repeated column", "source", sheet.Source, "column", name)
			continue
		case key == strings.ToLower(ColPromotionDiscount):
			seen[key] = true
			continue
		case reservedColumns[key]:
			slog.Warn("dropping column shadowed by a derived field", "source", sheet.Source, "column", name)
			seen[key] = true
			continue
		}
		seen[key] = true

		if c, ok := canonical[key]; ok {
			columns = append(columns, c)
			continue
		}
		columns = append(columns, name)
		passthrough[key] = i
	}

	return append(columns, ColCurrencyCode, ColAmount, ColRegion), passthrough
}

// DecodeDiscount parses a PromotionDiscount cell such as
// {"CurrencyCode": "USD", "Amount": "1.50"}.
// Keys must match CurrencyCode and Amount exactly and appear at most once;
// any other key fails. Amount may be a JSON number or a numeric string.
func DecodeDiscount(cell string) (Discount, error) {
	if cell == "" {
		return Discount{}, fmt.Errorf("%w: empty value", ErrMalformedDiscount)
	}

	fields, err := discountFields(cell)
	if err != nil {
		return Discount{}, err
	}

	var d Discount
	if raw, ok := fields[ColCurrencyCode]; ok && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &d.CurrencyCode); err != nil {
			return Discount{}, fmt.Errorf("%w: CurrencyCode: %v", ErrMalformedDiscount, err)
		}
		d.CurrencyCode = strings.TrimSpace(d.CurrencyCode)
	}

	d.Amount, err = decodeAmount(fields[ColAmount])
	if err != nil {
		return Discount{}, err
	}
	return d, nil
}

// discountFields walks the object in cell and returns the raw value of each
// key. encoding/json folds key case and lets repeated keys overwrite, so
// keys are checked here instead of by struct decoding.
func discountFields(cell string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(cell))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDiscount, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedDiscount)
	}

	fields := make(map[string]json.RawMessage, 2)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDiscount, err)
		}
		key, _ := tok.(string)
		if key != ColCurrencyCode && key != ColAmount {
			return nil, fmt.Errorf("%w: unknown key %q", ErrMalformedDiscount, key)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("%w: repeated key %q", ErrMalformedDiscount, key)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDiscount, err)
		}
		fields[key] = raw
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDiscount, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedDiscount)
	}
	return fields, nil
}

func decodeAmount(msg json.RawMessage) (float64, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return 0, fmt.Errorf("%w: missing Amount", ErrMalformedDiscount)
	}

	if msg[0] == '"' {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedDiscount, err)
		}
		amount, err := ParseNumeric(s)
		if err != nil {
			return 0, fmt.Errorf("Amount: %w", err)
		}
		return amount, nil
	}

	var n json.Number
	if err := json.Unmarshal(msg, &n); err != nil {
		return 0, fmt.Errorf("Amount: %w: %s", ErrNonNumeric, msg)
	}
	return ParseNumeric(n.String())
}
