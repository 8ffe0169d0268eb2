// analysis.go
package processor

import (
	"fmt"
	"time"

	"FlightRiskPricing/src/config"
	"FlightRiskPricing/src/datasource/file"
	"FlightRiskPricing/src/pricing"
	"FlightRiskPricing/src/storage"
)

// MinAirportFlights is the sample floor for airport rate tables.
// Airports with fewer flights are too noisy to report on.
const MinAirportFlights = 100

// AnalysisResult bundles everything one dataset run produces.
type AnalysisResult struct {
	Overview   *RiskOverview
	Sections   []ReportSection
	Report     string
	SourceFile string
	CleanStats file.CleanStats
}

// RunAnalysis loads a dataset file, cleans it and computes the full
// set of risk rate tables plus the rendered text report.
func RunAnalysis(datasetPath, sheetName string, dcfg *config.DataConfig, model *pricing.PricingModel, logger *storage.Logger) (*AnalysisResult, error) {
	df, err := file.ReadDataset(datasetPath, sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", datasetPath, err)
	}

	df, err = file.ApplyColumnMapping(df, dcfg.FlightDataMap())
	if err != nil {
		return nil, fmt.Errorf("column mapping failed for %s: %w", datasetPath, err)
	}

	df, stats, err := file.CleanDataset(df)
	if err != nil {
		return nil, fmt.Errorf("cleaning failed for %s: %w", datasetPath, err)
	}
	if stats.DroppedDates > 0 {
		logger.Warning(fmt.Sprintf("dropped %d rows with unparseable flight dates from %s",
			stats.DroppedDates, datasetPath))
	}

	df = file.AddFlightIndex(df)

	analyzer := NewRiskAnalyzer(df)

	overview, err := analyzer.Overview(model.ClaimAmount())
	if err != nil {
		return nil, err
	}

	sectionDefs := []struct {
		title string
		col   string
		min   int
	}{
		{"High risk rate by airline", file.ColAirline, 1},
		{"High risk rate by departure airport", file.ColDeparture, MinAirportFlights},
		{"High risk rate by arrival airport", file.ColArrival, MinAirportFlights},
		{"High risk rate by departure hour", file.ColHour, 1},
		{"High risk rate by day of week", file.ColDayOfWeek, 1},
		{"High risk rate by season", file.ColSeason, 1},
		{"High risk rate by month", file.ColMonth, 1},
	}

	var sections []ReportSection
	for _, def := range sectionDefs {
		rates, err := analyzer.RateByColumn(def.col, def.min)
		if err != nil {
			return nil, err
		}
		sections = append(sections, ReportSection{Title: def.title, Column: def.col, Rates: rates})
	}

	report := BuildBusinessReport(overview, sections, time.Now())
	logger.Info(fmt.Sprintf("analysis of %s finished: %d flights, high risk rate %.2f%%",
		datasetPath, overview.TotalFlights, overview.HighRiskRate*100))

	return &AnalysisResult{
		Overview:   overview,
		Sections:   sections,
		Report:     report,
		SourceFile: datasetPath,
		CleanStats: stats,
	}, nil
}
