// Package report renders usage analytics as an xlsx workbook.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/gapfill"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/units"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/usage"
)

const (
	DailySheet  = "Daily Usage"
	DeviceSheet = "Device Usage"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// UsageWorkbook writes the daily series and the per-device totals of one
// date range to two sheets. Values are rounded to two decimals.
func UsageWorkbook(daily []gapfill.Point, devices []usage.DeviceTotal) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	dailyIdx, err := f.NewSheet(DailySheet)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	if _, err := f.NewSheet(DeviceSheet); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}
	f.SetActiveSheet(dailyIdx)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	dailyRows := make([][]any, len(daily))
	for i, p := range daily {
		dailyRows[i] = []any{p.Key, units.Round2(p.Value)}
	}
	if err := writeTable(f, DailySheet, headerStyle, []string{"Date", "Usage (kWh)"}, dailyRows); err != nil {
		return nil, err
	}

	deviceRows := make([][]any, len(devices))
	for i, d := range devices {
		deviceRows[i] = []any{string(d.DeviceID), d.Name, units.Round2(d.Total)}
	}
	if err := writeTable(f, DeviceSheet, headerStyle, []string{"Device ID", "Device", "Usage (kWh)"}, deviceRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]any) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("setting header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("styling header %s: %w", cell, err)
		}
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("setting cell %s: %w", cell, err)
			}
		}
	}
	if err := f.SetColWidth(sheet, "A", "C", 18); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
