package processor

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
)

func TestOverviewCountsAndExpectedCost(t *testing.T) {
	analyzer := NewRiskAnalyzer(cleanedFixture(t))

	ov, err := analyzer.Overview(800)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}

	if ov.TotalFlights != 8 {
		t.Errorf("total flights = %d, want 8", ov.TotalFlights)
	}
	if ov.HighRiskCount != 3 {
		t.Errorf("high risk = %d, want 3", ov.HighRiskCount)
	}
	if ov.HighRiskRate != 3.0/8.0 {
		t.Errorf("high risk rate = %v, want 0.375", ov.HighRiskRate)
	}
	if ov.ExpectedClaimCost != 300.0 {
		t.Errorf("expected claim cost = %v, want 300.00", ov.ExpectedClaimCost)
	}
}

func TestOverviewDelayDistribution(t *testing.T) {
	analyzer := NewRiskAnalyzer(cleanedFixture(t))

	ov, err := analyzer.Overview(800)
	if err != nil {
		t.Fatal(err)
	}

	gotOrder := make([]string, len(ov.DelayByCategory))
	byCategory := make(map[string]DelayStats)
	for i, ds := range ov.DelayByCategory {
		gotOrder[i] = ds.Category
		byCategory[ds.Category] = ds
	}

	wantOrder := []string{"No Delay", "0-1h", "1-2h", ">3h"}
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("categories = %v, want %v", gotOrder, wantOrder)
	}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("categories = %v, want %v", gotOrder, wantOrder)
		}
	}

	long := byCategory[">3h"]
	if long.Count != 2 || long.MeanDelay != 4.5 || long.MaxDelay != 5 {
		t.Errorf(">3h stats = %+v, want count 2 mean 4.5 max 5", long)
	}
	if math.Abs(long.StdDelay-math.Sqrt(0.5)) > 1e-12 {
		t.Errorf(">3h std = %v, want sqrt(0.5)", long.StdDelay)
	}

	// A single sample has no spread.
	single := byCategory["0-1h"]
	if single.Count != 1 || single.StdDelay != 0 {
		t.Errorf("0-1h stats = %+v, want count 1 std 0", single)
	}
}

func TestOverviewRejectsUncleanedDataset(t *testing.T) {
	raw := dataframe.LoadRecords([][]string{
		{"airline", "delay_time"},
		{"MU", "1"},
	}, dataframe.DetectTypes(false))

	if _, err := NewRiskAnalyzer(raw).Overview(800); err == nil {
		t.Error("uncleaned dataset accepted")
	}
}
