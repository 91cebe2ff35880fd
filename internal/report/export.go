// Package report reads and writes asset registers as XLSX workbooks.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/model"
)

// Export writes assets as a workbook with one sheet per kind. Every sheet is
// present even when it has no rows. Assets keep their input order.
func Export(w io.Writer, assets []model.Asset) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	byKind := make(map[model.Kind][]*model.Asset)
	for i := range assets {
		k := classify.KindOf(assets[i].JenisInventaris)
		byKind[k] = append(byKind[k], &assets[i])
	}

	for i, sk := range sheetKinds {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sk.name); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sk.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sk.name, err)
		}
		if err := writeSheet(f, sk.name, kindColumns[sk.kind], byKind[sk.kind], headerStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, cols []column, rows []*model.Asset, headerStyle int) error {
	for i, c := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.header); err != nil {
			return fmt.Errorf("setting header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("setting header style: %w", err)
	}

	for r, a := range rows {
		values := make([]any, len(cols))
		for i, c := range cols {
			values[i] = c.value(a)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, r+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}
	return nil
}
