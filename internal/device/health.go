package device

import "fmt"

// HealthInfo is the device health snapshot returned by GET /api/health.
type HealthInfo struct {
	Firmware string `json:"firmware"`

	// Health is a bitmask of currently healthy components, one bit per
	// entry in ComponentNames.
	Health uint32 `json:"health"`

	// Boot packs one 4-bit status per component, in component order.
	// 0 = OK, 15 = failed, anything else is an in-progress stage.
	Boot uint64 `json:"boot"`

	// Absent flags hardware the firmware decided is not installed.
	Absent uint32 `json:"absent"`

	Timers    int `json:"timers"`
	MaxTimers int `json:"maxTimers"`

	RTCTempC     *float64 `json:"rtcTempC,omitempty"`
	CalendarDate string   `json:"calendarDate,omitempty"`
}

// ComponentNames lists the health-bit components in bit order.
// The order must match the firmware's component enum.
var ComponentNames = []string{
	"SD", "WiFi", "RTC", "Audio", "Distance", "Lux",
	"Sensor3", "NTP", "Weather", "Calendar", "TTS", "NAS",
}

// Boot status values for the 4-bit per-component fields.
const (
	BootStatusOK     = 0
	BootStatusFailed = 15
)

// ComponentOK reports whether the component at the given bit is healthy.
func (h *HealthInfo) ComponentOK(bit int) bool {
	return h.Health&(1<<uint(bit)) != 0
}

// ComponentAbsent reports whether the component's hardware is not installed.
func (h *HealthInfo) ComponentAbsent(bit int) bool {
	return h.Absent&(1<<uint(bit)) != 0
}

// BootStatus extracts the 4-bit boot status field for the given component.
func (h *HealthInfo) BootStatus(index int) int {
	return int(h.Boot >> (uint(index) * 4) & 0xF)
}

// BootStatusString renders a boot status field for display.
func (h *HealthInfo) BootStatusString(index int) string {
	switch v := h.BootStatus(index); v {
	case BootStatusOK:
		return "ok"
	case BootStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage %d", v)
	}
}
