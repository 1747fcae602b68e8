package export

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

const (
	EmployeesSheet = "Employees"
	EdgesSheet     = "Edges"
)

var employeeHeader = []any{
	"Employee ID", "Name", "Title", "Department", "Manager ID",
	"Vacant", "Expanded", "Direct Reports", "X", "Y", "Width", "Height",
}

var edgeHeader = []any{"Edge ID", "Manager ID", "Employee ID", "Dashed", "Color"}

// WriteChartXLSX writes the laid-out chart as a workbook with one row per
// visible employee and one row per edge.
func WriteChartXLSX(w io.Writer, chart services.Chart) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", EmployeesSheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	if _, err := f.NewSheet(EdgesSheet); err != nil {
		return errors.Wrap(err, "create edges sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "create header style")
	}

	if err := writeRow(f, EmployeesSheet, 1, employeeHeader); err != nil {
		return err
	}
	for i, n := range chart.Nodes {
		rec := n.Employee
		row := []any{
			rec.EmployeeID, rec.Name, rec.Title, rec.Department, rec.LineManagerID,
			yesNo(rec.IsVacant), yesNo(n.IsExpanded), n.ChildCount,
			n.Position.X, n.Position.Y, n.Width, n.Height,
		}
		if err := writeRow(f, EmployeesSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, EdgesSheet, 1, edgeHeader); err != nil {
		return err
	}
	for i, e := range chart.Edges {
		row := []any{e.ID, e.SourceID, e.TargetID, yesNo(e.Style.Dashed), e.Style.Color}
		if err := writeRow(f, EdgesSheet, i+2, row); err != nil {
			return err
		}
	}

	for sheet, header := range map[string][]any{EmployeesSheet: employeeHeader, EdgesSheet: edgeHeader} {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return errors.Wrap(err, "header range")
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return errors.Wrapf(err, "style %s header", strings.ToLower(sheet))
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return errors.Wrapf(err, "freeze %s header", strings.ToLower(sheet))
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "write %s row %d", sheet, row)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
