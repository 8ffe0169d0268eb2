// analyzer.go
package processor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-gota/gota/dataframe"

	"FlightRiskPricing/src/datasource/file"
	"FlightRiskPricing/src/utils"
)

// DimensionRate is the high risk rate of one group of flights, such
// as a single airline or departure hour.
type DimensionRate struct {
	Key   string
	Count int
	Rate  float64
}

// RiskAnalyzer computes risk statistics over a cleaned dataset.
type RiskAnalyzer struct {
	df dataframe.DataFrame
	mu sync.RWMutex
}

func NewRiskAnalyzer(df dataframe.DataFrame) *RiskAnalyzer {
	return &RiskAnalyzer{df: df}
}

// DF returns the current dataset (thread safe).
func (a *RiskAnalyzer) DF() dataframe.DataFrame {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.df
}

// SetDF swaps in a fresh dataset (thread safe).
func (a *RiskAnalyzer) SetDF(df dataframe.DataFrame) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.df = df
}

// RateByColumn groups flights by col and returns each group's high
// risk rate, sorted by rate descending with ties broken by key.
// Groups with fewer than minCount flights are dropped; their samples
// are too thin to price against.
func (a *RiskAnalyzer) RateByColumn(col string, minCount int) ([]DimensionRate, error) {
	df := a.DF()

	if !utils.HasColumn(df, col) {
		return nil, fmt.Errorf("column %s not in dataset", col)
	}
	if !utils.HasColumn(df, file.ColIsHighRisk) {
		return nil, fmt.Errorf("dataset was not cleaned: %s column missing", file.ColIsHighRisk)
	}

	grouped := df.GroupBy(col)
	if grouped.Err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", col, grouped.Err)
	}

	var rates []DimensionRate
	for _, g := range grouped.GetGroups() {
		count := g.Nrow()
		if count < minCount {
			continue
		}

		key := g.Col(col).Elem(0).String()

		highRisk := 0
		riskCol := g.Col(file.ColIsHighRisk)
		for i := 0; i < riskCol.Len(); i++ {
			if v, err := riskCol.Elem(i).Int(); err == nil && v == 1 {
				highRisk++
			}
		}

		rates = append(rates, DimensionRate{
			Key:   key,
			Count: count,
			Rate:  float64(highRisk) / float64(count),
		})
	}

	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Rate != rates[j].Rate {
			return rates[i].Rate > rates[j].Rate
		}
		return rates[i].Key < rates[j].Key
	})

	return rates, nil
}
