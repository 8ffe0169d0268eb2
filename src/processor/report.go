// report.go
package processor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"FlightRiskPricing/src/datasource/file"
	"FlightRiskPricing/src/utils"
)

// ReportSection carries one grouped rate table for rendering. Column
// is the dataset column the section was grouped by; it doubles as the
// sheet name in workbook exports.
type ReportSection struct {
	Title  string
	Column string
	Rates  []DimensionRate
}

const reportRule = "============================================================"

// BuildBusinessReport renders the overview and sections as the plain
// text report that is logged, mailed and pushed.
func BuildBusinessReport(ov *RiskOverview, sections []ReportSection, generatedAt time.Time) string {
	lines := []string{
		reportRule,
		"FLIGHT DELAY INSURANCE - RISK ANALYSIS REPORT",
		"Generated: " + generatedAt.Format("2006-01-02 15:04:05"),
		reportRule,
		"",
		"OVERVIEW",
		fmt.Sprintf("  Flights analyzed:    %d", ov.TotalFlights),
		fmt.Sprintf("  High risk flights:   %d (%.2f%%)", ov.HighRiskCount, ov.HighRiskRate*100),
		fmt.Sprintf("  Expected claim cost per policy: %.2f", ov.ExpectedClaimCost),
		"",
		"DELAY DISTRIBUTION",
	}

	for _, ds := range ov.DelayByCategory {
		lines = append(lines, fmt.Sprintf("  %-8s  %7d flights  mean %5.2fh  std %5.2fh  max %5.2fh",
			ds.Category, ds.Count, ds.MeanDelay, ds.StdDelay, ds.MaxDelay))
	}

	for _, sec := range sections {
		lines = append(lines, "", strings.ToUpper(sec.Title))
		if len(sec.Rates) == 0 {
			lines = append(lines, "  no groups above the sample floor")
			continue
		}
		for _, r := range sec.Rates {
			lines = append(lines, fmt.Sprintf("  %-12s %6.2f%%  (%d flights)",
				sectionKeyLabel(sec.Column, r.Key), r.Rate*100, r.Count))
		}
	}

	lines = append(lines, "", reportRule)
	return strings.Join(lines, "\n")
}

// sectionKeyLabel decorates numeric weekday keys with their names so
// the report reads without a calendar.
func sectionKeyLabel(column, key string) string {
	if column != file.ColDayOfWeek {
		return key
	}
	index, err := strconv.Atoi(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s (%s)", key, utils.WeekdayName(index))
}
