package pricing

// DefaultParams returns the reference calibration fitted offline from
// the historical claims dataset. config/multipliers.json carries the
// same values; this copy backs the demo and any run without a
// calibration file.
func DefaultParams() ModelParams {
	return ModelParams{
		BasePremium: 11.86,
		ClaimAmount: 800,

		Airline: MultiplierTable{
			Values: map[string]float64{
				// high risk (rate > 5%)
				"SV": 44.99, "PK": 16.67, "E8": 4.73, "9C": 4.13, "KC": 3.60,
				// medium-high risk (2-5%)
				"2P": 3.27, "OM": 3.27, "LV": 3.00, "BG": 2.93, "FM": 2.93,
				"MU": 2.80, "CZ": 2.67, "HU": 2.53, "3U": 2.40, "CA": 2.27,
				// medium risk (1-2%)
				"MF": 1.87, "ZH": 1.73, "GS": 1.60, "PN": 1.47, "EU": 1.33,
				"JD": 1.20, "NS": 1.07, "GJ": 0.93, "KY": 0.80, "8L": 0.67,
			},
			Default: 0.67,
		},

		Hour: MultiplierTable{
			Values: map[string]float64{
				"3": 3.64, "0": 1.87, "6": 1.93,
				"11": 1.20, "12": 1.13, "13": 1.27, "15": 1.27, "17": 1.27,
				"18": 1.20, "19": 1.07, "20": 1.20, "21": 1.07,
			},
			Default: 0.80,
		},

		// 0=Monday .. 6=Sunday
		DayOfWeek: MultiplierTable{
			Values: map[string]float64{
				"6": 1.20, "4": 1.07, "5": 1.00, "0": 0.93,
				"1": 0.93, "2": 1.00, "3": 0.73,
			},
			Default: 1.00,
		},

		Season: MultiplierTable{
			Values: map[string]float64{
				"Summer": 1.35, "Winter": 1.07, "Spring": 1.00, "Fall": 0.60,
			},
			Default: 1.00,
		},

		DepartureAirport: MultiplierTable{
			Values: airportValues(),
			Default: 1.00,
		},

		ArrivalAirport: MultiplierTable{
			Values: airportValues(),
			Default: 1.00,
		},
	}
}

// airportValues seeds both airport tables. The tables are independent
// mappings; sharing the seed keeps them aligned until either side is
// recalibrated on its own.
func airportValues() map[string]float64 {
	return map[string]float64{
		"SUB": 7.80, "DOH": 3.87, "ALA": 3.47, "LYA": 3.33, "SJW": 3.33,
		"PVG": 3.07, "ULN": 2.87, "TNA": 2.47, "YNT": 2.40, "WUS": 2.20,
	}
}
