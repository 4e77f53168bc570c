package export

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tealeg/xlsx"
)

// ErrInvalidWorkbook is returned for uploads that are not a readable xlsx workbook.
var ErrInvalidWorkbook = errors.New("invalid workbook")

// Draft is one staged LOP value read from a workbook.
type Draft struct {
	EmployeeID string `json:"employee_id"`
	LOP        string `json:"lop"`
}

// Import reads LOP values from a workbook in the export layout. The header row
// locates the Employee ID and LOP columns; rows with either one blank are skipped.
func Import(data []byte) ([]Draft, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidWorkbook, "opening upload: %v", err)
	}

	sheet, ok := file.Sheet[SheetName]
	if !ok {
		if len(file.Sheets) == 0 {
			return nil, errors.Wrap(ErrInvalidWorkbook, "workbook has no sheets")
		}
		sheet = file.Sheets[0]
	}

	idCol, lopCol := 0, len(columns)-1
	var drafts []Draft
	for index, row := range sheet.Rows {
		if row == nil {
			continue
		}
		if index == 0 {
			idCol, lopCol = headerColumns(row, idCol, lopCol)
			continue
		}

		id := cellText(row, idCol)
		lop := cellText(row, lopCol)
		if id == "" || lop == "" {
			continue
		}
		drafts = append(drafts, Draft{EmployeeID: id, LOP: lop})
	}
	return drafts, nil
}

func headerColumns(row *xlsx.Row, idCol int, lopCol int) (int, int) {
	for i, cell := range row.Cells {
		switch strings.TrimSpace(cell.String()) {
		case columns[0].header:
			idCol = i
		case columns[len(columns)-1].header:
			lopCol = i
		}
	}
	return idCol, lopCol
}

func cellText(row *xlsx.Row, col int) string {
	if col >= len(row.Cells) || row.Cells[col] == nil {
		return ""
	}
	return strings.TrimSpace(row.Cells[col].String())
}
