package core

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadSpreadsheet reads every row of one worksheet. An empty sheet name
// selects the first sheet. Cells hold their stored values, not the number
// format's display text. Trailing empty cells are not materialized, so rows
// may be shorter than the header.
func ReadSpreadsheet(r io.Reader, sheet string) ([]RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnparsableSource, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnparsableSource)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnparsableSource, sheet, err)
	}

	out := make([]RawRow, len(rows))
	for i, row := range rows {
		out[i] = RawRow(row)
	}
	return out, nil
}
