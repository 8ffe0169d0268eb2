package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// MultiplierTable maps one categorical risk dimension to positive
// multipliers. Keys absent from Values resolve to Default.
type MultiplierTable struct {
	Values  map[string]float64 `json:"values"`
	Default float64            `json:"default"`
}

// Lookup returns the multiplier for key, or the table default.
func (t MultiplierTable) Lookup(key string) float64 {
	if v, ok := t.Values[key]; ok {
		return v
	}
	return t.Default
}

// LookupInt looks up an integer key such as an hour or weekday index.
func (t MultiplierTable) LookupInt(key int) float64 {
	return t.Lookup(strconv.Itoa(key))
}

func (t MultiplierTable) validate(name string) error {
	if t.Default <= 0 {
		return fmt.Errorf("%s table: default multiplier %v is not positive", name, t.Default)
	}
	for key, v := range t.Values {
		if v <= 0 {
			return fmt.Errorf("%s table: multiplier %v for key %q is not positive", name, v, key)
		}
	}
	return nil
}

// ModelParams is the full pricing calibration: base parameters plus
// the six dimension tables. It is what config/multipliers.json holds.
type ModelParams struct {
	BasePremium      float64         `json:"base_premium"`
	ClaimAmount      float64         `json:"claim_amount"`
	Airline          MultiplierTable `json:"airline"`
	Hour             MultiplierTable `json:"hour"`
	DayOfWeek        MultiplierTable `json:"day_of_week"`
	Season           MultiplierTable `json:"season"`
	DepartureAirport MultiplierTable `json:"departure_airport"`
	ArrivalAirport   MultiplierTable `json:"arrival_airport"`
}

func (p ModelParams) Validate() error {
	if p.BasePremium <= 0 {
		return fmt.Errorf("base premium %v is not positive", p.BasePremium)
	}
	if p.ClaimAmount <= 0 {
		return fmt.Errorf("claim amount %v is not positive", p.ClaimAmount)
	}
	tables := []struct {
		name  string
		table MultiplierTable
	}{
		{"airline", p.Airline},
		{"hour", p.Hour},
		{"day_of_week", p.DayOfWeek},
		{"season", p.Season},
		{"departure_airport", p.DepartureAirport},
		{"arrival_airport", p.ArrivalAirport},
	}
	for _, t := range tables {
		if err := t.table.validate(t.name); err != nil {
			return err
		}
	}
	return nil
}

// LoadParams reads a calibration file. The tables stay swappable
// configuration so recalibration needs no code change.
func LoadParams(path string) (ModelParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelParams{}, fmt.Errorf("read calibration file: %w", err)
	}
	var params ModelParams
	if err := json.Unmarshal(data, &params); err != nil {
		return ModelParams{}, fmt.Errorf("parse calibration file %s: %w", path, err)
	}
	if err := params.Validate(); err != nil {
		return ModelParams{}, fmt.Errorf("calibration file %s: %w", path, err)
	}
	return params, nil
}
