package config

import "time"

// Registry is the entire user configuration file.
type Registry struct {
	Version     int                    `yaml:"version"`
	Controllers map[string]*Controller `yaml:"controllers,omitempty"` // Keyed by controller name
	Preferences *Preferences           `yaml:"preferences,omitempty"`
}

// Controller is user-side metadata for one known installation. The
// controller itself owns patterns, colors, and audio; only connection
// hints live here.
type Controller struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastIP   string    `yaml:"last_ip,omitempty"`   // Last known IP address
	Port     int       `yaml:"port,omitempty"`      // HTTP port if not 80
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Preferences are application-wide settings.
type Preferences struct {
	DefaultController string `yaml:"default_controller,omitempty"` // Controller used when none is named
	AutoDiscover      bool   `yaml:"auto_discover"`                // mDNS discovery when the default is unknown
	DiscoverTimeout   int    `yaml:"discover_timeout"`             // mDNS browse timeout in seconds
	PollIntervalSecs  int    `yaml:"poll_interval_secs,omitempty"` // Reconnect probe cadence
	PreviewDelayMs    int    `yaml:"preview_delay_ms,omitempty"`   // Edit preview debounce
}

// NewRegistry creates a Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Controllers: make(map[string]*Controller),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
		},
	}
}

// GetController retrieves controller metadata by name, or nil.
func (r *Registry) GetController(name string) *Controller {
	return r.Controllers[name]
}

// EnsureController returns the named entry, creating it if missing.
func (r *Registry) EnsureController(name string) *Controller {
	if r.Controllers == nil {
		r.Controllers = make(map[string]*Controller)
	}
	if c, exists := r.Controllers[name]; exists {
		return c
	}
	c := &Controller{}
	r.Controllers[name] = c
	return c
}

// UpdateLastSeen records when and where a controller was last reached.
func (r *Registry) UpdateLastSeen(name, ip string, port int) {
	c := r.EnsureController(name)
	c.LastSeen = time.Now()
	c.LastIP = ip
	c.Port = port
}

// SetNickname sets a user-friendly nickname for a controller.
func (r *Registry) SetNickname(name, nickname string) {
	r.EnsureController(name).Nickname = nickname
}

// SetDefaultController records which controller to use when the user
// does not name one.
func (r *Registry) SetDefaultController(name string) {
	if r.Preferences == nil {
		r.Preferences = &Preferences{AutoDiscover: true, DiscoverTimeout: 10}
	}
	r.Preferences.DefaultController = name
}

// PollInterval returns the configured reconnect probe cadence, or zero
// when unset so callers fall back to their own default.
func (r *Registry) PollInterval() time.Duration {
	if r.Preferences == nil || r.Preferences.PollIntervalSecs <= 0 {
		return 0
	}
	return time.Duration(r.Preferences.PollIntervalSecs) * time.Second
}

// PreviewDelay returns the configured edit preview debounce, or zero
// when unset.
func (r *Registry) PreviewDelay() time.Duration {
	if r.Preferences == nil || r.Preferences.PreviewDelayMs <= 0 {
		return 0
	}
	return time.Duration(r.Preferences.PreviewDelayMs) * time.Millisecond
}
