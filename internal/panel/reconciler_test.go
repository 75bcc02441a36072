package panel

import (
	"testing"
	"time"

	"github.com/kwal/kwalctl/internal/device"
)

func f(v float64) *float64 { return &v }

func TestApplyState_DerivesUsableRange(t *testing.T) {
	r := NewReconciler()

	// Scenario: volume at 40%, scale 200, raw bounds 20..180.
	r.ApplyState(device.StateEvent{
		AudioSliderPct: f(40),
		VolumeMax:      f(200),
		VolumeLo:       f(20),
		VolumeHi:       f(180),
	})

	got := r.Snapshot().Volume
	if got.Pct != 40 {
		t.Errorf("Pct = %d, want 40", got.Pct)
	}
	if got.LoPct != 10 {
		t.Errorf("LoPct = %d, want 10", got.LoPct)
	}
	if got.HiPct != 90 {
		t.Errorf("HiPct = %d, want 90", got.HiPct)
	}
}

func TestApplyState_BoundsUntouchedWithoutPositiveScale(t *testing.T) {
	r := NewReconciler()
	r.ApplyState(device.StateEvent{
		SliderPct:     f(50),
		BrightnessMax: f(255),
		BrightnessLo:  f(51),
		BrightnessHi:  f(204),
	})
	before := r.Snapshot().Brightness

	cases := []struct {
		name string
		ev   device.StateEvent
	}{
		{"absent scale", device.StateEvent{SliderPct: f(60), BrightnessLo: f(10), BrightnessHi: f(90)}},
		{"zero scale", device.StateEvent{SliderPct: f(60), BrightnessMax: f(0), BrightnessLo: f(10)}},
		{"negative scale", device.StateEvent{SliderPct: f(60), BrightnessMax: f(-5), BrightnessHi: f(300)}},
	}
	for _, tc := range cases {
		r.ApplyState(tc.ev)
		got := r.Snapshot().Brightness
		if got.LoPct != before.LoPct || got.HiPct != before.HiPct {
			t.Errorf("%s: bounds changed to %d..%d, want unchanged %d..%d",
				tc.name, got.LoPct, got.HiPct, before.LoPct, before.HiPct)
		}
		if got.Pct != 60 {
			t.Errorf("%s: Pct = %d, want 60 (value still applies)", tc.name, got.Pct)
		}
	}
}

func TestApplyState_PartialMergeIsAssociative(t *testing.T) {
	p := device.StateEvent{
		SliderPct:     f(40),
		BrightnessMax: f(255),
		BrightnessLo:  f(51),
		BrightnessHi:  f(204),
		PatternID:     "p1",
		PatternLabel:  "Calm",
		Fragment:      &device.FragmentEvent{Dir: 3, File: 7, Score: 12, DurationMs: 5200},
	}
	pPrime := device.StateEvent{
		SliderPct: f(70),
		ColorID:   "c2",
		PatternID: "p2",
	}
	// merged carries pPrime's fields overriding p's overlapping ones and
	// retaining p's non-overlapping ones.
	merged := device.StateEvent{
		SliderPct:     f(70),
		BrightnessMax: f(255),
		BrightnessLo:  f(51),
		BrightnessHi:  f(204),
		PatternID:     "p2",
		PatternLabel:  "Calm",
		ColorID:       "c2",
		Fragment:      &device.FragmentEvent{Dir: 3, File: 7, Score: 12, DurationMs: 5200},
	}

	sequential := NewReconciler()
	sequential.ApplyState(p)
	sequential.ApplyState(pPrime)

	single := NewReconciler()
	single.ApplyState(merged)

	if sequential.Snapshot() != single.Snapshot() {
		t.Errorf("sequential application %+v != merged application %+v",
			sequential.Snapshot(), single.Snapshot())
	}
}

func TestApplyState_AllFieldsVisibleBeforeListenersFire(t *testing.T) {
	r := NewReconciler()

	var seen DeviceState
	r.OnChange(func(s DeviceState) { seen = s })

	r.ApplyState(device.StateEvent{
		SliderPct:     f(40),
		BrightnessMax: f(200),
		BrightnessLo:  f(20),
		BrightnessHi:  f(180),
		PatternID:     "p1",
		ColorID:       "c1",
	})

	// The callback's snapshot must already carry every field of the
	// payload, not a partially applied state.
	if seen.Brightness.Pct != 40 || seen.Brightness.LoPct != 10 || seen.Brightness.HiPct != 90 {
		t.Errorf("listener saw partial brightness %+v", seen.Brightness)
	}
	if seen.PatternID != "p1" || seen.ColorID != "c1" {
		t.Errorf("listener saw partial ids %q/%q", seen.PatternID, seen.ColorID)
	}
}

func TestApplyLight_TouchesIDsOnly(t *testing.T) {
	r := NewReconciler()
	r.ApplyState(device.StateEvent{
		PatternID:    "p1",
		PatternLabel: "Calm",
		ColorID:      "c1",
		ColorLabel:   "Sunset",
	})

	r.ApplyLight(device.LightEvent{Pattern: "p2", Color: "c2"})

	got := r.Snapshot()
	if got.PatternID != "p2" || got.ColorID != "c2" {
		t.Errorf("ids = %q/%q, want p2/c2", got.PatternID, got.ColorID)
	}
	// Labels are carried more completely by the unified event; the
	// legacy event must not clear them.
	if got.PatternLabel != "Calm" || got.ColorLabel != "Sunset" {
		t.Errorf("labels = %q/%q, want Calm/Sunset", got.PatternLabel, got.ColorLabel)
	}
}

func TestApplyFragment_DurationIsUnifiedOnly(t *testing.T) {
	r := NewReconciler()
	r.ApplyState(device.StateEvent{
		Fragment: &device.FragmentEvent{Dir: 3, File: 7, Score: 12, DurationMs: 5200},
	})

	// Same fragment via the legacy event: score updates, duration stays.
	r.ApplyFragment(device.FragmentEvent{Dir: 3, File: 7, Score: 15})
	got := r.Snapshot().Fragment
	if got.Score != 15 {
		t.Errorf("Score = %d, want 15", got.Score)
	}
	if got.Duration != 5200*time.Millisecond {
		t.Errorf("Duration = %v, want 5.2s (legacy event must not overwrite it)", got.Duration)
	}

	// Different fragment: the old duration no longer applies.
	r.ApplyFragment(device.FragmentEvent{Dir: 4, File: 1, Score: 8})
	got = r.Snapshot().Fragment
	if got.Dir != 4 || got.File != 1 {
		t.Errorf("fragment = %d/%d, want 4/1", got.Dir, got.File)
	}
	if got.Duration != 0 {
		t.Errorf("Duration = %v, want 0 for a new fragment", got.Duration)
	}
}

func TestApplyState_ClampsOutOfRangeValues(t *testing.T) {
	r := NewReconciler()
	r.ApplyState(device.StateEvent{
		SliderPct:     f(140),
		BrightnessMax: f(100),
		BrightnessLo:  f(-20),
		BrightnessHi:  f(250),
	})

	got := r.Snapshot().Brightness
	if got.Pct != 100 {
		t.Errorf("Pct = %d, want clamp to 100", got.Pct)
	}
	if got.LoPct != 0 {
		t.Errorf("LoPct = %d, want clamp to 0", got.LoPct)
	}
	if got.HiPct != 100 {
		t.Errorf("HiPct = %d, want clamp to 100", got.HiPct)
	}
}
