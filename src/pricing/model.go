package pricing

import (
	"errors"
	"fmt"
	"math"

	"FlightRiskPricing/src/utils"
)

// ErrInvalidInput marks rejected calculator input: an unparseable
// date, an hour outside 0-23 or a non-positive base premium override.
// Unknown airline or airport codes are not errors; they price at the
// table defaults.
var ErrInvalidInput = errors.New("invalid input")

// FlightRequest is one flight to price. BasePremium overrides the
// calibrated base premium when set; nil keeps the default. Date is a
// civil date without a zone and Hour the scheduled local departure
// hour, matching how the historical data records flights.
type FlightRequest struct {
	Airline     string   `json:"airline"`
	Departure   string   `json:"departure"`
	Arrival     string   `json:"arrival"`
	Date        string   `json:"date"`
	Hour        int      `json:"hour"`
	BasePremium *float64 `json:"base_premium,omitempty"`
}

// Multipliers are the six per-dimension factors behind one quote.
type Multipliers struct {
	Airline          float64 `json:"airline"`
	Hour             float64 `json:"hour"`
	Day              float64 `json:"day"`
	Season           float64 `json:"season"`
	DepartureAirport float64 `json:"departure_airport"`
	ArrivalAirport   float64 `json:"arrival_airport"`
}

// FlightDetails echoes the priced flight with its derived calendar
// attributes. Date is normalized to 2006-01-02 form.
type FlightDetails struct {
	Airline   string `json:"airline"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Date      string `json:"date"`
	Hour      int    `json:"hour"`
	DayOfWeek string `json:"day_of_week"`
	Season    string `json:"season"`
}

// PremiumResult is a finished quote. Premium and BasePremium carry 2
// decimals, CombinedMultiplier and the individual multipliers 3, all
// rounded half away from zero.
type PremiumResult struct {
	Premium            float64       `json:"premium"`
	BasePremium        float64       `json:"base_premium"`
	CombinedMultiplier float64       `json:"combined_multiplier"`
	RiskCategory       string        `json:"risk_category"`
	Multipliers        Multipliers   `json:"multipliers"`
	FlightDetails      FlightDetails `json:"flight_details"`
}

// PricingModel prices flights from an immutable calibration. A model
// never changes after construction, so concurrent CalculatePremium
// calls need no locking.
type PricingModel struct {
	params ModelParams
}

// NewPricingModel validates the calibration and builds a model.
func NewPricingModel(params ModelParams) (*PricingModel, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("pricing model: %w", err)
	}
	return &PricingModel{params: params}, nil
}

// DefaultPricingModel builds a model on the built-in calibration.
func DefaultPricingModel() *PricingModel {
	return &PricingModel{params: DefaultParams()}
}

// LoadModel builds a model from a calibration file.
func LoadModel(path string) (*PricingModel, error) {
	params, err := LoadParams(path)
	if err != nil {
		return nil, err
	}
	return &PricingModel{params: params}, nil
}

func (m *PricingModel) BasePremium() float64 { return m.params.BasePremium }
func (m *PricingModel) ClaimAmount() float64 { return m.params.ClaimAmount }

// CalculatePremium prices one flight. Six independent table lookups
// feed a geometric mean; the result either fully succeeds or fails
// with ErrInvalidInput, never partially.
func (m *PricingModel) CalculatePremium(req FlightRequest) (*PremiumResult, error) {
	if req.Hour < 0 || req.Hour > 23 {
		return nil, fmt.Errorf("%w: hour %d outside 0-23", ErrInvalidInput, req.Hour)
	}
	if req.BasePremium != nil && *req.BasePremium <= 0 {
		return nil, fmt.Errorf("%w: base premium override %v is not positive", ErrInvalidInput, *req.BasePremium)
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	day := utils.WeekdayIndex(date)
	season := utils.SeasonOf(date.Month())

	airlineMult := m.params.Airline.Lookup(req.Airline)
	hourMult := m.params.Hour.LookupInt(req.Hour)
	dayMult := m.params.DayOfWeek.LookupInt(day)
	seasonMult := m.params.Season.Lookup(season)
	deptMult := m.params.DepartureAirport.Lookup(req.Departure)
	arrMult := m.params.ArrivalAirport.Lookup(req.Arrival)

	combined := geometricMean(airlineMult, hourMult, dayMult, seasonMult, deptMult, arrMult)

	base := m.params.BasePremium
	if req.BasePremium != nil {
		base = *req.BasePremium
	}
	premium := base * combined

	return &PremiumResult{
		Premium:            utils.Round2(premium),
		BasePremium:        utils.Round2(base),
		CombinedMultiplier: utils.Round3(combined),
		RiskCategory:       ClassifyRisk(combined),
		Multipliers: Multipliers{
			Airline:          utils.Round3(airlineMult),
			Hour:             utils.Round3(hourMult),
			Day:              utils.Round3(dayMult),
			Season:           utils.Round3(seasonMult),
			DepartureAirport: utils.Round3(deptMult),
			ArrivalAirport:   utils.Round3(arrMult),
		},
		FlightDetails: FlightDetails{
			Airline:   req.Airline,
			Departure: req.Departure,
			Arrival:   req.Arrival,
			Date:      date.Format("2006-01-02"),
			Hour:      req.Hour,
			DayOfWeek: utils.WeekdayName(day),
			Season:    season,
		},
	}, nil
}

// geometricMean bounds the blow-up from any single extreme factor
// relative to a plain product. The root follows the factor count, so
// adding a dimension changes the root with it.
func geometricMean(factors ...float64) float64 {
	product := 1.0
	for _, f := range factors {
		product *= f
	}
	return math.Pow(product, 1.0/float64(len(factors)))
}

// ClassifyRisk buckets an unrounded combined multiplier. Boundaries
// are exact: 0.8 is Medium Risk, 1.2 is High Risk.
func ClassifyRisk(combined float64) string {
	switch {
	case combined < 0.8:
		return "Low Risk"
	case combined < 1.2:
		return "Medium Risk"
	default:
		return "High Risk"
	}
}
