// export.go
package processor

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportSummary writes the overview and every rate section into a
// workbook, one sheet per grouped dimension.
func ExportSummary(path string, ov *RiskOverview, sections []ReportSection) error {
	f := excelize.NewFile()
	defer f.Close()

	const overviewSheet = "Overview"
	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return fmt.Errorf("failed to name overview sheet: %w", err)
	}

	setRow := func(sheet string, row int, values ...interface{}) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	setRow(overviewSheet, 1, "Metric", "Value")
	setRow(overviewSheet, 2, "Total Flights", ov.TotalFlights)
	setRow(overviewSheet, 3, "High Risk Flights", ov.HighRiskCount)
	setRow(overviewSheet, 4, "High Risk Rate", ov.HighRiskRate)
	setRow(overviewSheet, 5, "Expected Claim Cost Per Policy", ov.ExpectedClaimCost)

	setRow(overviewSheet, 7, "Delay Category", "Flights", "Mean Delay", "Std Delay", "Max Delay")
	for i, ds := range ov.DelayByCategory {
		setRow(overviewSheet, 8+i, ds.Category, ds.Count, ds.MeanDelay, ds.StdDelay, ds.MaxDelay)
	}

	for _, sec := range sections {
		if _, err := f.NewSheet(sec.Column); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sec.Column, err)
		}
		setRow(sec.Column, 1, sec.Title)
		setRow(sec.Column, 2, "Key", "High Risk Rate", "Flights")
		for i, r := range sec.Rates {
			setRow(sec.Column, 3+i, r.Key, r.Rate, r.Count)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
