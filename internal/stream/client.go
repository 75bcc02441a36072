package stream

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kwal/kwalctl/internal/device"
	"github.com/kwal/kwalctl/internal/logging"
)

// ConnectionState describes where the client is in its lifecycle.
type ConnectionState int

const (
	// Disconnected means no connection exists and no recovery is running.
	Disconnected ConnectionState = iota
	// Connecting means a websocket dial is in flight.
	Connecting
	// Connected means the push connection is live.
	Connected
	// RecoveringViaPoll means the connection dropped and the client is
	// probing the health endpoint until the device answers again.
	RecoveringViaPoll
)

// String returns a human-readable name for the state.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case RecoveringViaPoll:
		return "recovering"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
}

// DefaultPollInterval is the probe interval while recovering.
const DefaultPollInterval = 2 * time.Second

// envelope is the wire framing of one push event.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client owns the single push connection to the controller.
//
// Connect is idempotent: calling it while connected closes and discards
// the old connection first. The hasConnectedOnce flag lives for the
// process, not the connection, so the client can tell a first connect
// (nothing to refresh) from a reconnect (resume callbacks fire).
type Client struct {
	eventsURL string
	dialer    *websocket.Dialer

	// probe is the liveness check used while recovering.
	probe func() error
	// reload rebuilds the whole client context once the device answers
	// again after a drop.
	reload func()

	pollInterval time.Duration

	events *emitter

	mu               sync.Mutex
	conn             *websocket.Conn
	state            ConnectionState
	hasConnectedOnce bool
	// generation increments on every Connect, so a read loop servicing a
	// discarded connection can tell it is stale and must not dispatch
	// events or trigger recovery.
	generation     int
	polling        bool
	pollStop       chan struct{}
	resume         []func()
	stateListeners []func(ConnectionState)
}

// NewClient creates a stream client for the given websocket URL.
// probe and reload implement the poll-then-reload recovery path.
func NewClient(eventsURL string, probe func() error, reload func()) *Client {
	return &Client{
		eventsURL:    eventsURL,
		dialer:       websocket.DefaultDialer,
		probe:        probe,
		reload:       reload,
		pollInterval: DefaultPollInterval,
		events:       newEmitter(),
		state:        Disconnected,
	}
}

// SetPollInterval overrides the recovery probe interval.
func (c *Client) SetPollInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollInterval = d
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HasConnectedOnce reports whether any connection has ever succeeded
// during this process.
func (c *Client) HasConnectedOnce() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasConnectedOnce
}

// OnStateChange registers a callback fired asynchronously whenever the
// connection state changes. The panel uses it to show live link status.
func (c *Client) OnStateChange(fn func(ConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateListeners = append(c.stateListeners, fn)
}

// setStateLocked transitions the state and schedules listener dispatch.
// Caller must hold c.mu; listeners run on their own goroutine so they may
// call back into the client.
func (c *Client) setStateLocked(s ConnectionState) {
	if c.state == s {
		return
	}
	c.state = s
	if len(c.stateListeners) == 0 {
		return
	}
	listeners := make([]func(ConnectionState), len(c.stateListeners))
	copy(listeners, c.stateListeners)
	go func() {
		for _, fn := range listeners {
			fn(s)
		}
	}()
}

// OnResume registers a callback fired on every successful reconnect
// (not on the first connect), before any new events are dispatched.
// Dependents use it to re-fetch data the push channel does not fully
// cover after a device reboot.
func (c *Client) OnResume(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resume = append(c.resume, fn)
}

// Connect opens the push connection, closing and discarding any prior
// one first. Safe to call while already connected. On failure the
// recovery poll loop starts and the dial error is returned.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.generation++
	gen := c.generation
	c.setStateLocked(Connecting)
	url := c.eventsURL
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(url, nil)
	if err != nil {
		logging.Warn("Push connection failed", zap.String("url", url), zap.Error(err))
		c.mu.Lock()
		if gen == c.generation {
			c.startPollingLocked()
		}
		c.mu.Unlock()
		return fmt.Errorf("dial push connection: %w", err)
	}

	c.mu.Lock()
	if gen != c.generation {
		// A newer Connect superseded this one while we were dialing.
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	// The push connection and the poll loop are mutually exclusive.
	c.stopPollingLocked()
	c.conn = conn
	c.setStateLocked(Connected)
	reconnected := c.hasConnectedOnce
	c.hasConnectedOnce = true
	var resume []func()
	if reconnected {
		resume = make([]func(), len(c.resume))
		copy(resume, c.resume)
	}
	c.mu.Unlock()

	logging.LogConnection(url, "connected")

	// On a reconnect the device may have rebooted with new ids; let
	// dependents refresh before any new events are processed.
	if reconnected {
		logging.LogConnection(url, "resumed")
		for _, fn := range resume {
			fn()
		}
	}

	go c.readLoop(conn, gen)
	return nil
}

// Disconnect closes the connection and stops any recovery loop.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.stopPollingLocked()
	c.setStateLocked(Disconnected)
}

// readLoop dispatches events until the connection fails, then hands
// over to the recovery poller. gen guards against a discarded
// connection's loop acting on the client's current state.
func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.handleTransportError(gen, err)
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logging.Warn("Malformed push frame dropped", zap.Error(err))
			continue
		}
		if env.Event == "" {
			logging.Warn("Push frame without event name dropped")
			continue
		}

		c.mu.Lock()
		stale := gen != c.generation
		c.mu.Unlock()
		if stale {
			// Late frame from a dead connection; never dispatch it.
			return
		}

		logging.LogPushEvent(env.Event, env.Data)
		c.events.fire(env.Event, env.Data)
	}
}

func (c *Client) handleTransportError(gen int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	logging.Warn("Push connection lost", zap.Error(err))
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.startPollingLocked()
}

// on registers a raw listener with a decode wrapper that logs and drops
// malformed payloads without affecting other listeners.
func (c *Client) on(event string, decode func(json.RawMessage) error) {
	c.events.add(event, func(raw json.RawMessage) {
		if err := decode(raw); err != nil {
			logging.Warn("Malformed push payload dropped",
				zap.String("event", event),
				zap.Error(err),
			)
		}
	})
}

// OnState registers a listener for the unified state event.
func (c *Client) OnState(fn func(device.StateEvent)) {
	c.on(device.EventState, func(raw json.RawMessage) error {
		var ev device.StateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		fn(ev)
		return nil
	})
}

// OnFragment registers a listener for the legacy fragment event.
func (c *Client) OnFragment(fn func(device.FragmentEvent)) {
	c.on(device.EventFragment, func(raw json.RawMessage) error {
		var ev device.FragmentEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		fn(ev)
		return nil
	})
}

// OnLight registers a listener for the legacy light event.
func (c *Client) OnLight(fn func(device.LightEvent)) {
	c.on(device.EventLight, func(raw json.RawMessage) error {
		var ev device.LightEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		fn(ev)
		return nil
	})
}

// OnColors registers a listener for full color list replacements.
func (c *Client) OnColors(fn func(device.ColorList)) {
	c.on(device.EventColors, func(raw json.RawMessage) error {
		var list device.ColorList
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		fn(list)
		return nil
	})
}

// OnPatterns registers a listener for full pattern list replacements.
func (c *Client) OnPatterns(fn func(device.PatternList)) {
	c.on(device.EventPatterns, func(raw json.RawMessage) error {
		var list device.PatternList
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		fn(list)
		return nil
	})
}
