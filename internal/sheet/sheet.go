// Package sheet reads regional sales spreadsheets into core.Sheet values.
//
// The reader is picked from the file extension:
//
//   - .xlsx, .xlsm: first worksheet, raw cell values (excelize)
//   - .csv: comma separated, UTF-8 BOM stripped, invalid UTF-8 replaced
//
// The header is the first non-empty row. Data rows shorter than the header
// are padded with empty cells.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/salesetl/internal/core"
)

// ContextCheckInterval is how often, in rows, readers check for cancellation.
var ContextCheckInterval = 100

// readFunc returns every record of a file and the 1-based line each starts on.
type readFunc func(ctx context.Context, path string) ([][]string, []int, error)

var readers = map[string]readFunc{
	".csv":  readCSV,
	".xlsx": readXLSX,
	".xlsm": readXLSX,
}

// Supported reports whether path has an extension Read understands.
func Supported(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Read loads the spreadsheet at path.
func Read(ctx context.Context, path string) (*core.Sheet, error) {
	read, ok := readers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, core.NewStageError(core.StageLoad, core.CodeUnsupportedSheet, path, 0,
			fmt.Errorf("unsupported file type %q (want .csv, .xlsx or .xlsm)", filepath.Ext(path)))
	}

	if _, err := os.Stat(path); err != nil {
		return nil, core.NewStageError(core.StageLoad, core.CodeSourceUnreadable, path, 0, err)
	}

	records, lines, err := read(ctx, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, core.NewStageError(core.StageLoad, core.CodeUnsupportedSheet, path, 0, err)
	}

	return build(path, records, lines)
}

// build splits records into header and data rows.
func build(path string, records [][]string, lines []int) (*core.Sheet, error) {
	headerIdx := -1
	for i, rec := range records {
		if !blank(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, core.NewStageError(core.StageLoad, core.CodeUnsupportedSheet, path, 0,
			errors.New("empty file: no header row"))
	}

	header := records[headerIdx]
	rows := records[headerIdx+1:]
	for i, row := range rows {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			rows[i] = padded
		}
	}

	return &core.Sheet{
		Source: path,
		Header: header,
		Rows:   rows,
		Lines:  lines[headerIdx+1:],
	}, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
