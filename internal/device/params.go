package device

import "math"

// ParamDef describes one editable pattern parameter and its slider limits.
// LogScale parameters use a quadratic curve so the low end of the slider
// gives fine control.
type ParamDef struct {
	Key      string
	Label    string
	Min      float64
	Max      float64
	Step     float64
	LogScale bool
}

// PatternParams lists the editable pattern parameters in display order.
// Limits match what the firmware accepts.
var PatternParams = []ParamDef{
	{Key: "color_cycle_sec", Label: "Color Cycle (s)", Min: 1, Max: 120, Step: 1, LogScale: true},
	{Key: "bright_cycle_sec", Label: "Bright Cycle (s)", Min: 1, Max: 120, Step: 1, LogScale: true},
	{Key: "min_brightness", Label: "Min Brightness", Min: 1, Max: 255, Step: 1, LogScale: true},
	{Key: "fade_width", Label: "Fade Width", Min: 1, Max: 400, Step: 0.5, LogScale: true},
	{Key: "gradient_speed", Label: "Gradient Speed", Min: 0.01, Max: 1, Step: 0.01, LogScale: false},
	{Key: "center_x", Label: "Center X", Min: -132, Max: 132, Step: 0.5, LogScale: true},
	{Key: "center_y", Label: "Center Y", Min: -132, Max: 132, Step: 0.5, LogScale: true},
	{Key: "radius", Label: "Radius", Min: 1, Max: 164, Step: 0.5, LogScale: true},
	{Key: "window_width", Label: "Window Width", Min: 1, Max: 164, Step: 0.5, LogScale: true},
	{Key: "radius_osc", Label: "Radius Osc", Min: 1, Max: 164, Step: 0.5, LogScale: true},
	{Key: "x_amp", Label: "X Amplitude", Min: 1, Max: 116, Step: 0.5, LogScale: true},
	{Key: "y_amp", Label: "Y Amplitude", Min: 1, Max: 116, Step: 0.5, LogScale: true},
	{Key: "x_cycle_sec", Label: "X Cycle (s)", Min: 1, Max: 120, Step: 1, LogScale: true},
	{Key: "y_cycle_sec", Label: "Y Cycle (s)", Min: 1, Max: 120, Step: 1, LogScale: true},
}

// ParamByKey returns the definition for a parameter key, if known.
func ParamByKey(key string) (ParamDef, bool) {
	for _, def := range PatternParams {
		if def.Key == key {
			return def, true
		}
	}
	return ParamDef{}, false
}

// logExp is the power-curve exponent for log-scale sliders. Quadratic is
// perceptually natural for brightness, volume and speed.
const logExp = 2

// SliderToValue maps a slider position to a real parameter value using
// the definition's curve, snapped to its step and clamped to its range.
func (d ParamDef) SliderToValue(pos float64) float64 {
	val := pos
	if d.LogScale {
		fraction := (pos - d.Min) / (d.Max - d.Min)
		val = d.Min + math.Pow(fraction, logExp)*(d.Max-d.Min)
	}
	// Snap to step
	val = math.Round(val/d.Step) * d.Step
	return d.Clamp(val)
}

// ValueToSlider maps a real parameter value back to a slider position.
func (d ParamDef) ValueToSlider(val float64) float64 {
	if !d.LogScale {
		return val
	}
	fraction := (val - d.Min) / (d.Max - d.Min)
	return d.Min + math.Pow(fraction, 1.0/logExp)*(d.Max-d.Min)
}

// Clamp limits a value to the parameter's range.
func (d ParamDef) Clamp(val float64) float64 {
	return math.Max(d.Min, math.Min(d.Max, val))
}
