package sheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns the rows of the workbook's first worksheet.
// Cells are read raw so numeric formatting does not leak into values.
func readXLSX(ctx context.Context, path string) ([][]string, []int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no worksheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read worksheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	var (
		records [][]string
		lines   []int
	)
	for i := 0; rows.Next(); i++ {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, fmt.Errorf("read worksheet %q row %d: %w", sheets[0], i+1, err)
		}
		records = append(records, cols)
		lines = append(lines, i+1)
	}
	if err := rows.Error(); err != nil {
		return nil, nil, fmt.Errorf("read worksheet %q: %w", sheets[0], err)
	}

	return records, lines, nil
}
