// Package export turns the visible roster and the staged LOP values into an
// xlsx workbook, and reads such a workbook back.
package export

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/syrilster/leave-lop-console/internal/model"
)

const (
	SheetName   = "Leave Summary"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var columns = []struct {
	header string
	width  float64
}{
	{header: "Employee ID", width: 15},
	{header: "Employee Name", width: 25},
	{header: "Total Leaves", width: 15},
	{header: "Remaining Leaves", width: 18},
	{header: "LOP", width: 10},
}

// File is a generated download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func FileName(month int, year int) string {
	return fmt.Sprintf("leave_summary_%d_%d.xlsx", month, year)
}

// Export writes one row per roster row. Employees without a staged value get a blank LOP cell.
func Export(rows []model.LeaveRow, drafts map[string]string, month int, year int) (*File, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), SheetName)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}

	for i, col := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, name, name, col.width); err != nil {
			return nil, errors.Wrapf(err, "setting width of column %s", name)
		}
		if err := f.SetCellValue(SheetName, name+"1", col.header); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", bold); err != nil {
		return nil, errors.Wrap(err, "styling header row")
	}

	for i, r := range rows {
		values := []interface{}{r.EmployeeID, r.EmployeeName, r.TotalLeaves, r.RemainingLeaves, drafts[r.EmployeeID]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, errors.Wrapf(err, "writing row for employee %s", r.EmployeeID)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "serializing workbook")
	}
	return &File{
		Name:        FileName(month, year),
		ContentType: ContentType,
		Data:        buf.Bytes(),
	}, nil
}
