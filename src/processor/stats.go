// stats.go
package processor

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"FlightRiskPricing/src/datasource/file"
	"FlightRiskPricing/src/utils"
)

// DelayStats describes the delays inside one delay category.
type DelayStats struct {
	Category  string
	Count     int
	MeanDelay float64
	StdDelay  float64
	MaxDelay  float64
}

// RiskOverview is the portfolio-level summary of a dataset.
type RiskOverview struct {
	TotalFlights      int
	HighRiskCount     int
	HighRiskRate      float64
	ExpectedClaimCost float64
	DelayByCategory   []DelayStats
}

// Overview computes the portfolio summary. claimAmount is the payout
// per claim; the expected claim cost per policy is the high risk rate
// times that payout.
func (a *RiskAnalyzer) Overview(claimAmount float64) (*RiskOverview, error) {
	df := a.DF()

	if df.Nrow() == 0 {
		return nil, fmt.Errorf("dataset has no rows")
	}
	for _, col := range []string{file.ColIsHighRisk, file.ColDelay, file.ColDelayBucket} {
		if !utils.HasColumn(df, col) {
			return nil, fmt.Errorf("dataset was not cleaned: %s column missing", col)
		}
	}

	ov := &RiskOverview{TotalFlights: df.Nrow()}

	riskCol := df.Col(file.ColIsHighRisk)
	for i := 0; i < riskCol.Len(); i++ {
		if v, err := riskCol.Elem(i).Int(); err == nil && v == 1 {
			ov.HighRiskCount++
		}
	}
	ov.HighRiskRate = float64(ov.HighRiskCount) / float64(ov.TotalFlights)
	ov.ExpectedClaimCost = utils.Round2(ov.HighRiskRate * claimAmount)

	buckets := df.Col(file.ColDelayBucket).Records()
	delays := df.Col(file.ColDelay)
	byBucket := make(map[string][]float64, len(utils.DelayBuckets))
	for i, bucket := range buckets {
		byBucket[bucket] = append(byBucket[bucket], delays.Elem(i).Float())
	}

	for _, category := range utils.DelayBuckets {
		samples, ok := byBucket[category]
		if !ok {
			continue
		}

		stats := DelayStats{
			Category:  category,
			Count:     len(samples),
			MeanDelay: stat.Mean(samples, nil),
		}
		// StdDev is undefined for a single sample.
		if len(samples) > 1 {
			stats.StdDelay = stat.StdDev(samples, nil)
		}
		for _, s := range samples {
			if s > stats.MaxDelay {
				stats.MaxDelay = s
			}
		}
		ov.DelayByCategory = append(ov.DelayByCategory, stats)
	}

	return ov, nil
}
