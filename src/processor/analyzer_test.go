package processor

import (
	"testing"

	"github.com/go-gota/gota/dataframe"

	"FlightRiskPricing/src/datasource/file"
)

// cleanedFixture runs a small raw dataset through the production
// cleaning path. Three airlines: SV with 2 of 3 flights high risk,
// MU with 1 of 4 (a claim), KC with a single low risk flight.
func cleanedFixture(t *testing.T) dataframe.DataFrame {
	t.Helper()
	raw := dataframe.LoadRecords([][]string{
		{"airline", "departure_airport", "arrival_airport", "flight_date", "departure_hour", "delay_time", "is_claim"},
		{"SV", "DOH", "SUB", "2024-07-21", "3", "4", "0"},
		{"SV", "DOH", "SUB", "2024-07-22", "4", "5", "0"},
		{"SV", "DOH", "HKG", "2024-07-23", "5", "0", "0"},
		{"MU", "PVG", "HKG", "2024-01-15", "9", "0", "1"},
		{"MU", "PVG", "HKG", "2024-01-16", "10", "1", "0"},
		{"MU", "PVG", "SUB", "2024-01-17", "11", "2", "0"},
		{"MU", "PVG", "SUB", "2024-01-18", "12", "0", "0"},
		{"KC", "ALA", "PVG", "2024-03-02", "7", "0", "0"},
	}, dataframe.DetectTypes(false))
	if raw.Err != nil {
		t.Fatal(raw.Err)
	}

	df, _, err := file.CleanDataset(raw)
	if err != nil {
		t.Fatal(err)
	}
	return df
}

func TestRateByColumnComputesRates(t *testing.T) {
	analyzer := NewRiskAnalyzer(cleanedFixture(t))

	rates, err := analyzer.RateByColumn(file.ColAirline, 1)
	if err != nil {
		t.Fatalf("RateByColumn: %v", err)
	}
	if len(rates) != 3 {
		t.Fatalf("groups = %d, want 3: %+v", len(rates), rates)
	}

	want := []DimensionRate{
		{Key: "SV", Count: 3, Rate: 2.0 / 3.0},
		{Key: "MU", Count: 4, Rate: 0.25},
		{Key: "KC", Count: 1, Rate: 0},
	}
	for i, w := range want {
		if rates[i] != w {
			t.Errorf("rate[%d] = %+v, want %+v", i, rates[i], w)
		}
	}
}

func TestRateByColumnSampleFloor(t *testing.T) {
	analyzer := NewRiskAnalyzer(cleanedFixture(t))

	rates, err := analyzer.RateByColumn(file.ColAirline, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rates {
		if r.Key == "KC" {
			t.Error("group below the sample floor survived")
		}
	}

	rates, err = analyzer.RateByColumn(file.ColAirline, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 1 || rates[0].Key != "MU" {
		t.Errorf("rates = %+v, want only MU", rates)
	}
}

func TestRateByColumnUnknownColumn(t *testing.T) {
	analyzer := NewRiskAnalyzer(cleanedFixture(t))

	if _, err := analyzer.RateByColumn("aircraft_type", 1); err == nil {
		t.Error("unknown column accepted")
	}
}

func TestRateByColumnTieBreaksOnKey(t *testing.T) {
	raw := dataframe.LoadRecords([][]string{
		{"airline", "departure_airport", "arrival_airport", "flight_date", "departure_hour", "delay_time", "is_claim"},
		{"ZH", "PVG", "HKG", "2024-05-01", "8", "4", "0"},
		{"CA", "PVG", "HKG", "2024-05-01", "9", "4", "0"},
	}, dataframe.DetectTypes(false))
	if raw.Err != nil {
		t.Fatal(raw.Err)
	}
	df, _, err := file.CleanDataset(raw)
	if err != nil {
		t.Fatal(err)
	}

	rates, err := NewRiskAnalyzer(df).RateByColumn(file.ColAirline, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 2 || rates[0].Key != "CA" || rates[1].Key != "ZH" {
		t.Errorf("equal rates not sorted by key: %+v", rates)
	}
}

func TestSetDFSwapsDataset(t *testing.T) {
	analyzer := NewRiskAnalyzer(cleanedFixture(t))

	raw := dataframe.LoadRecords([][]string{
		{"airline", "departure_airport", "arrival_airport", "flight_date", "departure_hour", "delay_time", "is_claim"},
		{"GS", "TNA", "YNT", "2024-06-01", "6", "0", "0"},
	}, dataframe.DetectTypes(false))
	df, _, err := file.CleanDataset(raw)
	if err != nil {
		t.Fatal(err)
	}
	analyzer.SetDF(df)

	rates, err := analyzer.RateByColumn(file.ColAirline, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 1 || rates[0].Key != "GS" {
		t.Errorf("analyzer still serving old dataset: %+v", rates)
	}
}
