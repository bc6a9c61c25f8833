// Package export renders inventory read models as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

const inventorySheet = "Inventory"

var inventoryHeaders = []string{
	"Model", "Model Code", "Category", "Manufacturer",
	"Total", "In Inventory", "Deployed", "Demo Deployed", "Sold Deployed",
}

var inventoryWidths = []float64{28, 16, 20, 20, 10, 14, 12, 15, 15}

// InventoryWorkbook writes one row per model plus a totals row taken from
// the inventory summary, and returns the xlsx bytes.
func InventoryWorkbook(summary model.InventorySummary, rows []model.InventoryByModel) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(inventorySheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

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
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, h := range inventoryHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(inventorySheet, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(inventorySheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(inventorySheet, col, col, inventoryWidths[i]); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, m := range rows {
		values := []any{m.ModelName, deref(m.ModelCode), m.Category, deref(m.Manufacturer),
			m.Total, m.InInventory, m.Deployed, m.DemoDeployed, m.SoldDeployed}
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	totals := []any{"Total", "", "", "",
		summary.TotalDevices, summary.InInventory, summary.Deployed, summary.DemoDeployed, summary.SoldDeployed}
	if err := setRow(f, row, totals); err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(inventoryHeaders), row)
	first, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellStyle(inventorySheet, first, last, totalStyle); err != nil {
		return nil, err
	}

	if err := f.SetPanes(inventorySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(inventorySheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
