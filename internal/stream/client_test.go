package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kwal/kwalctl/internal/device"
)

// newPushServer starts a websocket server that hands accepted connections
// to the test over a channel.
func newPushServer(t *testing.T) (*httptest.Server, chan *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(server.Close)
	return server, conns
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func noProbe() error { return nil }

func TestConnect_FirstConnectDoesNotFireResume(t *testing.T) {
	server, conns := newPushServer(t)

	client := NewClient(wsURL(server), noProbe, func() {})
	var resumeCalls int32
	client.OnResume(func() { atomic.AddInt32(&resumeCalls, 1) })

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Disconnect()
	<-conns

	if got := atomic.LoadInt32(&resumeCalls); got != 0 {
		t.Errorf("resume calls after first connect = %d, want 0", got)
	}
	if !client.HasConnectedOnce() {
		t.Error("HasConnectedOnce should be true after first connect")
	}
	if client.State() != Connected {
		t.Errorf("State = %v, want Connected", client.State())
	}
}

func TestConnect_ReconnectFiresResumeExactlyOnce(t *testing.T) {
	server, conns := newPushServer(t)

	client := NewClient(wsURL(server), noProbe, func() {})
	var resumeCalls int32
	client.OnResume(func() { atomic.AddInt32(&resumeCalls, 1) })

	if err := client.Connect(); err != nil {
		t.Fatalf("first Connect() error = %v", err)
	}
	<-conns

	// Second Connect discards the first connection and counts as a
	// reconnect: resume fires before any new events are processed.
	if err := client.Connect(); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	defer client.Disconnect()
	<-conns

	if got := atomic.LoadInt32(&resumeCalls); got != 1 {
		t.Errorf("resume calls after reconnect = %d, want 1", got)
	}
}

func TestDispatch_ListenersInRegistrationOrder(t *testing.T) {
	server, conns := newPushServer(t)

	client := NewClient(wsURL(server), noProbe, func() {})
	order := make(chan int, 2)
	client.OnLight(func(device.LightEvent) { order <- 1 })
	client.OnLight(func(device.LightEvent) { order <- 2 })

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Disconnect()
	conn := <-conns

	msg := `{"event":"light","data":{"pattern":"p1","color":"c1"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for want := 1; want <= 2; want++ {
		select {
		case got := <-order:
			if got != want {
				t.Errorf("listener fired out of order: got %d, want %d", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for listener")
		}
	}
}

func TestDispatch_MalformedPayloadDroppedPerEvent(t *testing.T) {
	server, conns := newPushServer(t)

	client := NewClient(wsURL(server), noProbe, func() {})
	states := make(chan device.StateEvent, 2)
	lights := make(chan device.LightEvent, 2)
	client.OnState(func(ev device.StateEvent) { states <- ev })
	client.OnLight(func(ev device.LightEvent) { lights <- ev })

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Disconnect()
	conn := <-conns

	// Malformed state payload, then a valid light event, then a valid
	// state event. The bad payload must not affect either.
	frames := []string{
		`{"event":"state","data":"not an object"}`,
		`{"event":"light","data":{"pattern":"p2","color":"c2"}}`,
		`{"event":"state","data":{"patternId":"p3"}}`,
	}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	select {
	case ev := <-lights:
		if ev.Pattern != "p2" {
			t.Errorf("light pattern = %s, want p2", ev.Pattern)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("light listener never fired")
	}

	select {
	case ev := <-states:
		if ev.PatternID != "p3" {
			t.Errorf("state patternId = %s, want p3 (malformed frame must be dropped)", ev.PatternID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("state listener never fired")
	}
}

func TestRecovery_PollThenReloadExactlyOnce(t *testing.T) {
	server, conns := newPushServer(t)

	var probes, reloads int32
	probe := func() error {
		// Fail the first two probes, then report the device healthy.
		if atomic.AddInt32(&probes, 1) < 3 {
			return device.NewNetworkError("still down", nil)
		}
		return nil
	}
	reloaded := make(chan struct{}, 4)
	reload := func() {
		atomic.AddInt32(&reloads, 1)
		reloaded <- struct{}{}
	}

	client := NewClient(wsURL(server), probe, reload)
	client.SetPollInterval(10 * time.Millisecond)

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	conn := <-conns

	// Drop the connection from the server side; the client must enter
	// poll mode and reload once the probe succeeds.
	_ = conn.Close()

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("reload never triggered")
	}

	// Give a stray duplicate reload a chance to show up.
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&reloads); got != 1 {
		t.Errorf("reloads = %d, want exactly 1", got)
	}
	if got := atomic.LoadInt32(&probes); got < 3 {
		t.Errorf("probes = %d, want at least 3", got)
	}
	if client.State() != Disconnected {
		t.Errorf("State after recovery = %v, want Disconnected", client.State())
	}
}

func TestConnect_FailureEntersPollMode(t *testing.T) {
	// Server that refuses websocket upgrades.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(wsURL(server), func() error {
		return device.NewNetworkError("down", nil)
	}, func() {})
	client.SetPollInterval(time.Hour)

	if err := client.Connect(); err == nil {
		t.Fatal("Connect() should fail against a non-websocket server")
	}
	if client.State() != RecoveringViaPoll {
		t.Errorf("State = %v, want RecoveringViaPoll", client.State())
	}
	client.Disconnect()
}

func TestDisconnect_StopsEverything(t *testing.T) {
	server, conns := newPushServer(t)

	client := NewClient(wsURL(server), noProbe, func() {})
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	<-conns

	client.Disconnect()
	if client.State() != Disconnected {
		t.Errorf("State = %v, want Disconnected", client.State())
	}
	// Idempotent.
	client.Disconnect()
}
