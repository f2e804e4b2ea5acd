package sheet

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// utf8BOM is commonly prepended by Windows spreadsheet exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(ctx context.Context, path string) ([][]string, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return parseCSV(ctx, f)
}

// parseCSV reads every record from r, skipping a leading BOM and replacing
// invalid UTF-8 sequences with U+FFFD. Blank lines are skipped by
// encoding/csv, so each record's starting line is reported alongside it.
func parseCSV(ctx context.Context, r io.Reader) ([][]string, []int, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == string(utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, nil, err
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	var (
		records [][]string
		lines   []int
	)
	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("invalid csv: %w", err)
		}

		for j, cell := range rec {
			rec[j] = strings.ToValidUTF8(cell, "�")
		}
		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	return records, lines, nil
}
