package airquality

// pollutantDefaults is the value used for any pollutant an upstream omits.
var pollutantDefaults = map[Pollutant]float64{
	PollutantPM25: 0,
	PollutantPM10: 0,
	PollutantCO:   0,
	PollutantNO2:  0,
	PollutantSO2:  0,
	PollutantO3:   0,
}

// NewConcentrations applies the default table to parsed pollutant values.
// Absent keys and nil values both fall back to the default.
func NewConcentrations(values map[Pollutant]*float64) Concentrations {
	get := func(p Pollutant) float64 {
		if v, ok := values[p]; ok && v != nil {
			return *v
		}
		return pollutantDefaults[p]
	}

	return Concentrations{
		PM25: get(PollutantPM25),
		PM10: get(PollutantPM10),
		CO:   get(PollutantCO),
		NO2:  get(PollutantNO2),
		SO2:  get(PollutantSO2),
		O3:   get(PollutantO3),
	}
}
