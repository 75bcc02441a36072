package edit

import (
	"sync"
	"time"
)

// DefaultPreviewDelay is the quiet period before a speculative preview
// is pushed to the device.
const DefaultPreviewDelay = 150 * time.Millisecond

// PreviewScheduler debounces speculative preview pushes. Each Schedule
// call cancels any pending push and starts the delay over, so a burst of
// rapid edits produces exactly one device request carrying the latest
// draft.
type PreviewScheduler struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewPreviewScheduler creates a scheduler with the given quiet period.
// A non-positive delay falls back to DefaultPreviewDelay.
func NewPreviewScheduler(delay time.Duration) *PreviewScheduler {
	if delay <= 0 {
		delay = DefaultPreviewDelay
	}
	return &PreviewScheduler{delay: delay}
}

// Schedule arms the debounce timer with push as the pending action,
// replacing any previously pending one. Last call wins.
func (s *PreviewScheduler) Schedule(push func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		s.timer = nil
		s.mu.Unlock()
		push()
	})
}

// Stop cancels any pending push. Called when the edit session resolves
// so a stale preview cannot fire after a save or discard.
func (s *PreviewScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
