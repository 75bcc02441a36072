package panel

import "time"

// SliderState is one analog control's canonical view. Pct moves across the
// full 0-100 span; LoPct/HiPct mark the usable range the device considers
// meaningful. Outside it is a display-only grey zone.
type SliderState struct {
	Pct   int
	LoPct int
	HiPct int
}

// FragmentInfo describes the audio fragment currently playing.
// Duration is zero when unknown (legacy events do not carry it).
type FragmentInfo struct {
	Dir      int
	File     int
	Score    int
	Duration time.Duration
}

// DeviceState is the canonical merged snapshot of everything the panel
// displays. It is replaced field-by-field on every push; it is never
// persisted.
type DeviceState struct {
	Brightness SliderState
	Volume     SliderState

	PatternID    string
	PatternLabel string
	ColorID      string
	ColorLabel   string

	Fragment FragmentInfo
}

// newDeviceState returns the pre-first-push state: sliders parked at zero
// with the full span usable until the device reports its real bounds.
func newDeviceState() DeviceState {
	return DeviceState{
		Brightness: SliderState{Pct: 0, LoPct: 0, HiPct: 100},
		Volume:     SliderState{Pct: 0, LoPct: 0, HiPct: 100},
	}
}
