package panel

import (
	"math"
	"sync"
	"time"

	"github.com/kwal/kwalctl/internal/device"
)

// Reconciler merges push events into one canonical DeviceState.
//
// The unified "state" event and the legacy "fragment"/"light" events all
// land here and produce the same kind of update, except that legacy events
// only ever touch the narrow field subset they represent and never
// overwrite fields the unified event supplies more completely (fragment
// duration is unified-only).
type Reconciler struct {
	mu        sync.Mutex
	state     DeviceState
	listeners []func(DeviceState)
}

// NewReconciler creates a reconciler with the pre-first-push state.
func NewReconciler() *Reconciler {
	return &Reconciler{state: newDeviceState()}
}

// OnChange registers a listener for canonical state changes. Listeners
// are invoked in registration order with a completed snapshot; a partial
// apply is never visible.
func (r *Reconciler) OnChange(fn func(DeviceState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Snapshot returns the current canonical state.
func (r *Reconciler) Snapshot() DeviceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ApplyState merges one unified state payload. Fields absent from the
// payload retain their previous values. All present fields are applied
// before any listener fires.
func (r *Reconciler) ApplyState(ev device.StateEvent) {
	r.mu.Lock()
	next := r.state

	applySlider(&next.Brightness, ev.SliderPct, ev.BrightnessMax, ev.BrightnessLo, ev.BrightnessHi)
	applySlider(&next.Volume, ev.AudioSliderPct, ev.VolumeMax, ev.VolumeLo, ev.VolumeHi)

	if ev.PatternID != "" {
		next.PatternID = ev.PatternID
	}
	if ev.PatternLabel != "" {
		next.PatternLabel = ev.PatternLabel
	}
	if ev.ColorID != "" {
		next.ColorID = ev.ColorID
	}
	if ev.ColorLabel != "" {
		next.ColorLabel = ev.ColorLabel
	}

	if ev.Fragment != nil {
		next.Fragment = FragmentInfo{
			Dir:      ev.Fragment.Dir,
			File:     ev.Fragment.File,
			Score:    ev.Fragment.Score,
			Duration: time.Duration(ev.Fragment.DurationMs) * time.Millisecond,
		}
	}

	r.commitLocked(next)
}

// ApplyFragment merges a legacy fragment event. Duration arrives only in
// the unified event, so it is not overwritten here: a changed fragment
// resets it to unknown, an unchanged one keeps the last known value.
func (r *Reconciler) ApplyFragment(ev device.FragmentEvent) {
	r.mu.Lock()
	next := r.state

	if ev.Dir != next.Fragment.Dir || ev.File != next.Fragment.File {
		next.Fragment.Duration = 0
	}
	next.Fragment.Dir = ev.Dir
	next.Fragment.File = ev.File
	next.Fragment.Score = ev.Score

	r.commitLocked(next)
}

// ApplyLight merges a legacy light event: active ids only, no labels.
func (r *Reconciler) ApplyLight(ev device.LightEvent) {
	r.mu.Lock()
	next := r.state

	if ev.Pattern != "" {
		next.PatternID = ev.Pattern
	}
	if ev.Color != "" {
		next.ColorID = ev.Color
	}

	r.commitLocked(next)
}

// commitLocked stores the snapshot and notifies listeners. Expects r.mu
// held; releases it before the callbacks run.
func (r *Reconciler) commitLocked(next DeviceState) {
	r.state = next
	listeners := make([]func(DeviceState), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// applySlider merges one control's fields. The usable-range boundaries are
// derived as round(rawBound/scaleMax*100) and only when the payload
// carries both the raw bound and a positive scale; otherwise they retain
// their previous values. A scale of zero would divide away, and a bogus
// range must not be drawn before the device has reported a real scale.
func applySlider(s *SliderState, pct, scaleMax, rawLo, rawHi *float64) {
	if pct != nil {
		s.Pct = clampPct(int(math.Round(*pct)))
	}
	if scaleMax == nil || *scaleMax <= 0 {
		return
	}
	if rawLo != nil {
		s.LoPct = clampPct(int(math.Round(*rawLo / *scaleMax * 100)))
	}
	if rawHi != nil {
		s.HiPct = clampPct(int(math.Round(*rawHi / *scaleMax * 100)))
	}
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
