package core

// validation.go checks a sheet's shape before any row is flattened.
//
// Validation happens at two levels:
//  1. Header validation: required columns must be present
//  2. Row validation: OrderId must be non-empty (see Flatten)
//
// Both are fatal for the file being loaded; there is no row-level recovery.

import (
	"fmt"
	"strings"
)

// RequiredColumns lists the sheet columns the loader depends on.
var RequiredColumns = []string{
	ColOrderID,
	ColQuantityOrdered,
	ColItemPrice,
	ColPromotionDiscount,
}

// ValidateHeaders validates that all required columns exist in the header.
// Returns the header index, or an error listing every missing column.
func ValidateHeaders(header []string, required []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)
	var missing []string

	for _, name := range required {
		if _, ok := idx[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return idx, nil
}

// cell returns the cleaned value of column name in row, or "" if the row is short.
func (h HeaderIndex) cell(row []string, name string) string {
	pos, ok := h[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// rawCell is like cell but only trims whitespace.
func (h HeaderIndex) rawCell(row []string, name string) string {
	pos, ok := h[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// sameColumnSet reports whether a and b contain the same names, ignoring case and order.
// On mismatch it returns the names only in a and only in b.
func sameColumnSet(a, b []string) (bool, []string, []string) {
	inA := make(map[string]bool, len(a))
	for _, c := range a {
		inA[strings.ToLower(c)] = true
	}
	inB := make(map[string]bool, len(b))
	for _, c := range b {
		inB[strings.ToLower(c)] = true
	}

	var onlyA, onlyB []string
	for _, c := range a {
		if !inB[strings.ToLower(c)] {
			onlyA = append(onlyA, c)
		}
	}
	for _, c := range b {
		if !inA[strings.ToLower(c)] {
			onlyB = append(onlyB, c)
		}
	}
	return len(onlyA) == 0 && len(onlyB) == 0, onlyA, onlyB
}
