package alert

// DefaultBounds holds the attention/warning/severe bounds used to lazily
// seed a threshold row the first time an indicator is checked for a period
type DefaultBounds struct {
	Attention float64
	Warning   float64
	Severe    float64
}

// DefaultThresholds maps each indicator to its seed bounds
var DefaultThresholds = map[Indicator]DefaultBounds{
	IndicatorVolatilityIndex: {Attention: 20, Warning: 30, Severe: 40},
	IndicatorVolatilitySkew:  {Attention: 0.5, Warning: 1.0, Severe: 1.5},
	IndicatorDeltaExposure:   {Attention: 0.3, Warning: 0.5, Severe: 0.7},
	IndicatorGammaExposure:   {Attention: 0.1, Warning: 0.2, Severe: 0.3},
	IndicatorVegaExposure:    {Attention: 10, Warning: 20, Severe: 30},
	IndicatorPutCallRatio:    {Attention: 1.2, Warning: 1.5, Severe: 2.0},
	IndicatorReflexivity:     {Attention: 0.3, Warning: 0.5, Severe: 0.7},
}
