package panel

import (
	"errors"
	"testing"

	"github.com/kwal/kwalctl/internal/device"
)

func twoColors() []device.ColorSet {
	return []device.ColorSet{
		{ID: "c1", Label: "Sunset", ColorAHex: "#ff8800", ColorBHex: "#220044"},
		{ID: "c2", Label: "Ocean", ColorAHex: "#0044ff", ColorBHex: "#00ffcc"},
	}
}

func TestLoad_ReplacesWholesale(t *testing.T) {
	c := NewListCache[device.ColorSet]()

	err := c.Load(func() ([]device.ColorSet, string, error) {
		return twoColors(), "c2", nil
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if c.ActiveID() != "c2" {
		t.Errorf("ActiveID = %s, want c2", c.ActiveID())
	}
	if active, ok := c.Active(); !ok || active.Label != "Ocean" {
		t.Errorf("Active = %+v ok=%v, want Ocean", active, ok)
	}
}

func TestLoad_ErrorLeavesCacheUnchanged(t *testing.T) {
	c := NewListCache[device.ColorSet]()
	c.ReplaceFromPush(twoColors(), "c1")

	err := c.Load(func() ([]device.ColorSet, string, error) {
		return nil, "", errors.New("device busy")
	})
	if err == nil {
		t.Fatal("Load() should propagate the fetch error")
	}
	if c.Len() != 2 || c.ActiveID() != "c1" {
		t.Error("failed load must not mutate the cache")
	}
}

func TestSetActiveByID_IdempotentNotification(t *testing.T) {
	c := NewListCache[device.ColorSet]()
	c.ReplaceFromPush(twoColors(), "c1")

	var notifications int
	c.OnChange(func() { notifications++ })

	c.SetActiveByID("c2")
	c.SetActiveByID("c2")

	if notifications != 1 {
		t.Errorf("notifications = %d, want exactly 1 for a repeated id", notifications)
	}
	if c.ActiveID() != "c2" {
		t.Errorf("ActiveID = %s, want c2", c.ActiveID())
	}

	// Empty id is never a selection.
	c.SetActiveByID("")
	if notifications != 1 || c.ActiveID() != "c2" {
		t.Error("empty id must be a no-op")
	}
}

func TestReplaceFromPush_FiresDiscardHook(t *testing.T) {
	c := NewListCache[device.ColorSet]()

	var discards, changes int
	c.OnDiscard(func() { discards++ })
	c.OnChange(func() { changes++ })

	c.ReplaceFromPush(twoColors()[:1], "c1")

	if discards != 1 {
		t.Errorf("discards = %d, want 1 (push replacement invalidates edits)", discards)
	}
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
}

func TestLoad_StaleFetchDoesNotResurrectOldList(t *testing.T) {
	c := NewListCache[device.ColorSet]()

	fetchStarted := make(chan struct{})
	fetchRelease := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- c.Load(func() ([]device.ColorSet, string, error) {
			close(fetchStarted)
			<-fetchRelease
			// A full two-entry list from before the delete.
			return twoColors(), "c2", nil
		})
	}()

	<-fetchStarted
	// Push-driven replacement lands while the fetch is in flight:
	// a delete removed c2.
	c.ReplaceFromPush(twoColors()[:1], "c1")
	close(fetchRelease)

	if err := <-done; err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 (stale fetch must be dropped)", c.Len())
	}
	if c.ActiveID() != "c1" {
		t.Errorf("ActiveID = %s, want c1", c.ActiveID())
	}
}

func TestGet_MissingID(t *testing.T) {
	c := NewListCache[device.Pattern]()
	c.ReplaceFromPush([]device.Pattern{{ID: "p1", Label: "Calm"}}, "p1")

	if _, ok := c.Get("gone"); ok {
		t.Error("Get of a missing id should report absence")
	}
	// Active id referencing a removed entry: the active concept is
	// undefined, not an invented fallback.
	c.ReplaceFromPush([]device.Pattern{{ID: "p2", Label: "Storm"}}, "p1")
	if _, ok := c.Active(); ok {
		t.Error("Active should be undefined when the id is not in the list")
	}
}
