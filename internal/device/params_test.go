package device

import (
	"math"
	"testing"
)

func TestParamByKey(t *testing.T) {
	def, ok := ParamByKey("fade_width")
	if !ok {
		t.Fatal("fade_width should be a known parameter")
	}
	if def.Max != 400 {
		t.Errorf("fade_width Max = %v, want 400", def.Max)
	}

	if _, ok := ParamByKey("no_such_param"); ok {
		t.Error("unknown key should not resolve")
	}
}

func TestSliderToValue_LinearParam(t *testing.T) {
	def, _ := ParamByKey("gradient_speed")

	if got := def.SliderToValue(0.5); got != 0.5 {
		t.Errorf("SliderToValue(0.5) = %v, want 0.5 (linear param)", got)
	}
}

func TestSliderToValue_Clamps(t *testing.T) {
	def, _ := ParamByKey("radius")

	if got := def.SliderToValue(1000); got != def.Max {
		t.Errorf("SliderToValue(1000) = %v, want clamp to %v", got, def.Max)
	}
	if got := def.SliderToValue(-10); got != def.Min {
		t.Errorf("SliderToValue(-10) = %v, want clamp to %v", got, def.Min)
	}
}

func TestSliderRoundTrip(t *testing.T) {
	// Value -> slider position -> value must land back on the same
	// step-snapped value for every log-scale parameter.
	for _, def := range PatternParams {
		for _, frac := range []float64{0, 0.25, 0.5, 0.75, 1} {
			val := def.Min + frac*(def.Max-def.Min)
			val = math.Round(val/def.Step) * def.Step

			pos := def.ValueToSlider(val)
			back := def.SliderToValue(pos)

			if math.Abs(back-val) > def.Step/2+1e-9 {
				t.Errorf("%s: round trip %v -> %v -> %v", def.Key, val, pos, back)
			}
		}
	}
}

func TestLowEndResolutionFinerThanHighEnd(t *testing.T) {
	// The whole point of the quadratic curve: equal slider movement at
	// the low end covers a smaller value range than at the high end.
	def, _ := ParamByKey("color_cycle_sec")

	span := def.Max - def.Min
	lowDelta := def.SliderToValue(def.Min+0.2*span) - def.SliderToValue(def.Min+0.1*span)
	highDelta := def.SliderToValue(def.Min+0.9*span) - def.SliderToValue(def.Min+0.8*span)

	if lowDelta >= highDelta {
		t.Errorf("low-end delta %v should be smaller than high-end delta %v", lowDelta, highDelta)
	}
}
