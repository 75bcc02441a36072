package device

// Push event names sent by the controller over the event channel.
const (
	EventState    = "state"    // Unified snapshot, supersedes the legacy events
	EventFragment = "fragment" // Legacy: audio fragment change only
	EventLight    = "light"    // Legacy: active pattern/color ids only
	EventColors   = "colors"   // Full color list replacement (e.g. after delete)
	EventPatterns = "patterns" // Full pattern list replacement
)

// Pattern is a named light-pattern parameter set stored on the device.
type Pattern struct {
	ID     string             `json:"id,omitempty"`
	Label  string             `json:"label"`
	Params map[string]float64 `json:"params"`
}

// Key returns the resource identity used for list and cache bookkeeping.
func (p Pattern) Key() string { return p.ID }

// Name returns the user-visible label.
func (p Pattern) Name() string { return p.Label }

// Clone returns a deep copy so an edit draft cannot alias the cached params.
func (p Pattern) Clone() Pattern {
	out := p
	out.Params = make(map[string]float64, len(p.Params))
	for k, v := range p.Params {
		out.Params[k] = v
	}
	return out
}

// ColorSet is a named pair of gradient colors stored on the device.
type ColorSet struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label"`
	ColorAHex string `json:"colorA_hex"`
	ColorBHex string `json:"colorB_hex"`
}

// Key returns the resource identity used for list and cache bookkeeping.
func (c ColorSet) Key() string { return c.ID }

// Name returns the user-visible label.
func (c ColorSet) Name() string { return c.Label }

// Clone returns a copy; ColorSet has no reference fields but the edit
// layer treats all resources uniformly.
func (c ColorSet) Clone() ColorSet { return c }

// PatternList is the full pattern inventory plus the active selection,
// as returned by GET /api/patterns and by the "patterns" push event.
type PatternList struct {
	ActivePattern string    `json:"active_pattern"`
	Patterns      []Pattern `json:"patterns"`
}

// ColorList is the full color inventory plus the active selection,
// as returned by GET /api/colors and by the "colors" push event.
type ColorList struct {
	ActiveColor string     `json:"active_color"`
	Colors      []ColorSet `json:"colors"`
}

// PatternSave is the durable write payload for POST /api/patterns.
// ID is set only for an update-in-place; omitting it creates a new entry.
type PatternSave struct {
	ID     string             `json:"id,omitempty"`
	Label  string             `json:"label"`
	Params map[string]float64 `json:"params"`
	Select bool               `json:"select"`
}

// ColorSave is the durable write payload for POST /api/colors.
type ColorSave struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label"`
	ColorAHex string `json:"colorA_hex"`
	ColorBHex string `json:"colorB_hex"`
	Select    bool   `json:"select"`
}

// PatternPreview is the speculative write payload for POST /api/patterns/preview.
type PatternPreview struct {
	Params map[string]float64 `json:"params"`
}

// ColorPreview is the speculative write payload for POST /api/colors/preview.
type ColorPreview struct {
	ColorAHex string `json:"colorA_hex"`
	ColorBHex string `json:"colorB_hex"`
}

// StateEvent is the unified "state" push payload. Every field is optional;
// a partial payload updates only the fields present. Pointer fields
// distinguish "absent" from zero, which matters for the slider bounds.
type StateEvent struct {
	SliderPct     *float64 `json:"sliderPct,omitempty"`
	BrightnessLo  *float64 `json:"brightnessLo,omitempty"`
	BrightnessHi  *float64 `json:"brightnessHi,omitempty"`
	BrightnessMax *float64 `json:"brightnessMax,omitempty"`

	AudioSliderPct *float64 `json:"audioSliderPct,omitempty"`
	VolumeLo       *float64 `json:"volumeLo,omitempty"`
	VolumeHi       *float64 `json:"volumeHi,omitempty"`
	VolumeMax      *float64 `json:"volumeMax,omitempty"`

	PatternID    string `json:"patternId,omitempty"`
	PatternLabel string `json:"patternLabel,omitempty"`
	ColorID      string `json:"colorId,omitempty"`
	ColorLabel   string `json:"colorLabel,omitempty"`

	Fragment *FragmentEvent `json:"fragment,omitempty"`
}

// FragmentEvent describes the audio fragment currently playing.
// The legacy "fragment" event carries dir/file/score only; durationMs
// arrives exclusively inside the unified state event.
type FragmentEvent struct {
	Dir        int `json:"dir"`
	File       int `json:"file"`
	Score      int `json:"score"`
	DurationMs int `json:"durationMs,omitempty"`
}

// LightEvent is the legacy "light" push payload: active ids without labels.
type LightEvent struct {
	Pattern string `json:"pattern"`
	Color   string `json:"color"`
}
