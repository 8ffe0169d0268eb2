// dataset.go
package file

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"FlightRiskPricing/src/utils"
)

// Logical dataset column names. Source files map their own headers to
// these through the flight_data section of dataconfig.json.
const (
	ColFlightID   = "flight_id"
	ColAirline    = "airline"
	ColDeparture  = "departure_airport"
	ColArrival    = "arrival_airport"
	ColFlightDate = "flight_date"
	ColHour       = "departure_hour"
	ColDelay      = "delay_time"
	ColIsClaim    = "is_claim"
)

// Columns derived during cleaning.
const (
	ColYear         = "year"
	ColMonth        = "month"
	ColDayOfWeek    = "day_of_week"
	ColSeason       = "season"
	ColIsHighRisk   = "is_high_risk"
	ColRiskCategory = "risk_category"
	ColDelayBucket  = "delay_category"
)

// RequiredColumns must exist after mapping for cleaning to proceed.
var RequiredColumns = []string{
	ColAirline, ColDeparture, ColArrival, ColFlightDate, ColHour, ColDelay, ColIsClaim,
}

// CleanStats summarizes what cleaning kept and dropped.
type CleanStats struct {
	TotalRows    int
	DroppedDates int
}

// ApplyColumnMapping renames physical source headers to their logical
// names, then verifies that every required column is present.
func ApplyColumnMapping(df dataframe.DataFrame, mapping map[string]string) (dataframe.DataFrame, error) {
	for logical, physical := range mapping {
		if physical == "" || physical == logical {
			continue
		}
		if utils.HasColumn(df, physical) {
			df = df.Rename(logical, physical)
			if df.Err != nil {
				return df, fmt.Errorf("failed to rename column %s: %w", physical, df.Err)
			}
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !utils.HasColumn(df, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return df, fmt.Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}

	return df, nil
}

// CleanDataset validates and enriches a mapped dataset. Rows whose
// flight date cannot be parsed are dropped; delay and claim values
// that fail to parse count as zero. A flight is high risk when its
// delay exceeds three hours or a claim was paid.
func CleanDataset(df dataframe.DataFrame) (dataframe.DataFrame, CleanStats, error) {
	stats := CleanStats{}
	if df.Err != nil {
		return df, stats, df.Err
	}
	if df.Nrow() == 0 {
		return df, stats, fmt.Errorf("dataset has no rows")
	}

	dates := df.Col(ColFlightDate).Records()

	keep := make([]int, 0, len(dates))
	normDates := make([]string, 0, len(dates))
	years := make([]int, 0, len(dates))
	months := make([]int, 0, len(dates))
	weekdays := make([]int, 0, len(dates))
	seasons := make([]string, 0, len(dates))

	for i, raw := range dates {
		t, err := parseFlightDate(raw)
		if err != nil {
			stats.DroppedDates++
			continue
		}
		keep = append(keep, i)
		normDates = append(normDates, t.Format("2006-01-02"))
		years = append(years, t.Year())
		months = append(months, int(t.Month()))
		weekdays = append(weekdays, utils.WeekdayIndex(t))
		seasons = append(seasons, utils.SeasonOf(t.Month()))
	}

	if len(keep) == 0 {
		return df, stats, fmt.Errorf("dataset has no rows with a parseable flight date")
	}

	df = df.Subset(keep)
	if df.Err != nil {
		return df, stats, fmt.Errorf("failed to drop invalid rows: %w", df.Err)
	}
	stats.TotalRows = df.Nrow()

	delays := make([]float64, df.Nrow())
	for i, raw := range df.Col(ColDelay).Records() {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			v = 0
		}
		delays[i] = v
	}

	claims := make([]int, df.Nrow())
	for i, raw := range df.Col(ColIsClaim).Records() {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil && v == 1 {
			claims[i] = 1
		}
	}

	highRisk := make([]int, df.Nrow())
	riskCategory := make([]string, df.Nrow())
	delayBucket := make([]string, df.Nrow())
	for i := range delays {
		if delays[i] > 3 || claims[i] == 1 {
			highRisk[i] = 1
			riskCategory[i] = "High Risk"
		} else {
			riskCategory[i] = "Low Risk"
		}
		delayBucket[i] = utils.DelayBucket(delays[i])
	}

	trimmed := func(col string) []string {
		records := df.Col(col).Records()
		for i, r := range records {
			records[i] = strings.TrimSpace(r)
		}
		return records
	}

	df = df.
		Mutate(series.New(trimmed(ColAirline), series.String, ColAirline)).
		Mutate(series.New(trimmed(ColDeparture), series.String, ColDeparture)).
		Mutate(series.New(trimmed(ColArrival), series.String, ColArrival)).
		Mutate(series.New(trimmed(ColHour), series.String, ColHour)).
		Mutate(series.New(normDates, series.String, ColFlightDate)).
		Mutate(series.New(delays, series.Float, ColDelay)).
		Mutate(series.New(claims, series.Int, ColIsClaim)).
		Mutate(series.New(years, series.Int, ColYear)).
		Mutate(series.New(months, series.Int, ColMonth)).
		Mutate(series.New(weekdays, series.Int, ColDayOfWeek)).
		Mutate(series.New(seasons, series.String, ColSeason)).
		Mutate(series.New(highRisk, series.Int, ColIsHighRisk)).
		Mutate(series.New(riskCategory, series.String, ColRiskCategory)).
		Mutate(series.New(delayBucket, series.String, ColDelayBucket))
	if df.Err != nil {
		return df, stats, fmt.Errorf("failed to derive columns: %w", df.Err)
	}

	return df, stats, nil
}

// AddFlightIndex synthesizes a flight_id column when the source file
// carries none.
func AddFlightIndex(df dataframe.DataFrame) dataframe.DataFrame {
	if utils.HasColumn(df, ColFlightID) {
		return df
	}

	airlines := df.Col(ColAirline).Records()
	departures := df.Col(ColDeparture).Records()
	arrivals := df.Col(ColArrival).Records()
	dates := df.Col(ColFlightDate).Records()
	hours := df.Col(ColHour).Records()

	hashes := make([]string, len(airlines))
	for i := range airlines {
		key := airlines[i] + departures[i] + arrivals[i] + dates[i] + hours[i]
		sum := md5.Sum([]byte(key))
		hashes[i] = hex.EncodeToString(sum[:])
	}

	return df.Mutate(series.New(hashes, series.String, ColFlightID))
}

// parseFlightDate accepts calendar layouts first and falls back to
// Excel date serials, which appear when workbooks store real date
// cells.
func parseFlightDate(s string) (time.Time, error) {
	if t, err := utils.ParseDate(s); err == nil {
		return t, nil
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err == nil && serial >= 1 && serial < 300000 {
		return excelSerialToTime(serial), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized flight date %q", s)
}

// excelSerialToTime converts an Excel date serial using the 1900
// epoch. The epoch sits at 1899-12-30 to absorb the fictitious
// 1900-02-29; serials before that day land one short and shift
// forward instead.
func excelSerialToTime(serial float64) time.Time {
	if serial < 60 {
		serial++
	}
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	days := int(serial)
	fraction := serial - float64(days)
	return base.AddDate(0, 0, days).Add(time.Duration(86400*fraction*1e9) * time.Nanosecond)
}
