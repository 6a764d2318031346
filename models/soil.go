package models

// SoilReading is one snapshot of the five simulated sensor values.
// Only the current snapshot matters; older ones are discarded.
type SoilReading struct {
	Moisture   float64 `json:"moisture"`
	PH         float64 `json:"pH"`
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
}

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp forces x into r.
func (r Range) Clamp(x float64) float64 {
	if x < r.Min {
		return r.Min
	}
	if x > r.Max {
		return r.Max
	}
	return x
}

// Contains reports whether x lies in r.
func (r Range) Contains(x float64) bool {
	return x >= r.Min && x <= r.Max
}

var (
	// PercentRange bounds moisture and the three nutrients.
	PercentRange = Range{Min: 0, Max: 100}
	// PHRange bounds pH.
	PHRange = Range{Min: 0, Max: 14}
)

// SoilBaseline is the reading every simulation starts from.
func SoilBaseline() SoilReading {
	return SoilReading{
		Moisture:   65,
		PH:         6.5,
		Nitrogen:   40,
		Phosphorus: 30,
		Potassium:  35,
	}
}

// Clamp returns r with every field forced into its valid range.
func (r SoilReading) Clamp() SoilReading {
	return SoilReading{
		Moisture:   PercentRange.Clamp(r.Moisture),
		PH:         PHRange.Clamp(r.PH),
		Nitrogen:   PercentRange.Clamp(r.Nitrogen),
		Phosphorus: PercentRange.Clamp(r.Phosphorus),
		Potassium:  PercentRange.Clamp(r.Potassium),
	}
}

// InBounds reports whether every field lies in its valid range.
func (r SoilReading) InBounds() bool {
	return PercentRange.Contains(r.Moisture) &&
		PHRange.Contains(r.PH) &&
		PercentRange.Contains(r.Nitrogen) &&
		PercentRange.Contains(r.Phosphorus) &&
		PercentRange.Contains(r.Potassium)
}

// SoilMetric describes one card on the dashboard.
type SoilMetric struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Icon  string  `json:"icon"`
	Range Range   `json:"range"`
}

// Metrics flattens r into the five dashboard cards, in display order.
func (r SoilReading) Metrics() []SoilMetric {
	return []SoilMetric{
		{Key: "moisture", Value: r.Moisture, Unit: "%", Icon: "💧", Range: PercentRange},
		{Key: "pH", Value: r.PH, Unit: "pH level", Icon: "🧪", Range: PHRange},
		{Key: "nitrogen", Value: r.Nitrogen, Unit: "mg/kg", Icon: "🌱", Range: PercentRange},
		{Key: "phosphorus", Value: r.Phosphorus, Unit: "mg/kg", Icon: "🦴", Range: PercentRange},
		{Key: "potassium", Value: r.Potassium, Unit: "mg/kg", Icon: "🍌", Range: PercentRange},
	}
}

// SoilOverview is the static part of the dashboard: where the stream starts,
// how it is bounded and how often it ticks.
type SoilOverview struct {
	Baseline        SoilReading  `json:"baseline"`
	Metrics         []SoilMetric `json:"metrics"`
	IntervalSeconds float64      `json:"interval_seconds"`
	Insight         string       `json:"insight"`
}
