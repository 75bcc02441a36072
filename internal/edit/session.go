package edit

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kwal/kwalctl/internal/device"
	"github.com/kwal/kwalctl/internal/logging"
)

// State is the edit session's position in its two-state machine.
type State int

const (
	// Clean means nothing is being edited or the last edit was resolved.
	Clean State = iota
	// Editing means at least one value changed since BeginEdit.
	Editing
)

// Resource is the constraint for editable device resources. Clone must
// return a deep copy so drafts cannot alias cached data.
type Resource[T any] interface {
	Key() string
	Name() string
	Clone() T
}

// Hooks are the session's constructor-injected collaborators. Save and
// Select perform durable device writes; Refresh re-fetches the resource
// list after a successful save.
type Hooks[T any] struct {
	Save    func(id, label string, draft T) error
	Select  func(id string) error
	Refresh func()
}

// Session tracks the edit state for one resource class. The pattern and
// color classes hold independent sessions and may be dirty at the same
// time.
type Session[T Resource[T]] struct {
	class string
	hooks Hooks[T]

	mu            sync.Mutex
	state         State
	editingID     string
	originalLabel string
	original      T
	hasOriginal   bool
	draft         T
	hasDraft      bool
	onChange      []func()
}

// NewSession creates a Clean session for the named resource class.
func NewSession[T Resource[T]](class string, hooks Hooks[T]) *Session[T] {
	return &Session[T]{class: class, hooks: hooks}
}

// OnChange registers a listener fired whenever the session's modified
// state may have changed (the panel uses it to show/hide the save bar).
func (s *Session[T]) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// State returns the current machine state.
func (s *Session[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsModified reports whether unsaved changes exist.
func (s *Session[T]) IsModified() bool {
	return s.State() == Editing
}

// EditingID returns the id of the resource being edited, or "".
func (s *Session[T]) EditingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingID
}

// Draft returns a copy of the current draft, if one exists.
func (s *Session[T]) Draft() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasDraft {
		var zero T
		return zero, false
	}
	return s.draft.Clone(), true
}

// BeginEdit captures the pre-edit snapshot and the identity of the
// resource under edit. Viewing is not modifying: the session stays
// unmodified until MarkModified. Allowed only from Clean; callers switch
// targets by discarding first.
func (s *Session[T]) BeginEdit(res T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Clean {
		return false
	}
	s.editingID = res.Key()
	s.originalLabel = res.Name()
	s.original = res.Clone()
	s.hasOriginal = true
	s.draft = res.Clone()
	s.hasDraft = true
	return true
}

// UpdateDraft applies fn to the draft and marks the session modified.
// A no-op when no edit target exists.
func (s *Session[T]) UpdateDraft(fn func(*T)) {
	s.mu.Lock()
	if !s.hasDraft {
		s.mu.Unlock()
		return
	}
	fn(&s.draft)
	s.markModifiedLocked()
}

// MarkModified moves Clean to Editing, provided an edit target exists.
// Idempotent while already Editing.
func (s *Session[T]) MarkModified() {
	s.mu.Lock()
	if s.editingID == "" {
		s.mu.Unlock()
		return
	}
	s.markModifiedLocked()
}

// markModifiedLocked expects s.mu held and releases it.
func (s *Session[T]) markModifiedLocked() {
	changed := s.state != Editing
	s.state = Editing
	s.notifyLocked(changed)
}

// Save persists the draft under the given label. The outgoing payload
// carries the resource id only when the label is unchanged from the
// original, signalling an update in place; a changed label omits the id
// so the device creates a new entry. On success the session resets to
// Clean and the list refresh hook runs.
func (s *Session[T]) Save(label string) error {
	s.mu.Lock()
	if !s.hasDraft {
		s.mu.Unlock()
		return device.NewValidationError("nothing to save")
	}
	if label == "" {
		s.mu.Unlock()
		return device.NewValidationError("label must not be empty")
	}

	id := ""
	if label == s.originalLabel && s.editingID != "" {
		id = s.editingID
	}
	draft := s.draft.Clone()
	s.mu.Unlock()

	if err := s.hooks.Save(id, label, draft); err != nil {
		// Session state is left untouched so the user can retry.
		return err
	}

	logging.Info("Resource saved",
		zap.String("class", s.class),
		zap.String("label", label),
		zap.Bool("in_place", id != ""),
	)

	s.Discard()
	if s.hooks.Refresh != nil {
		s.hooks.Refresh()
	}
	return nil
}

// Revert re-selects the original resource on the device and resets to
// Clean. A silent no-op when there is no original id to go back to.
func (s *Session[T]) Revert() {
	s.mu.Lock()
	if s.state != Editing {
		s.mu.Unlock()
		return
	}
	id := s.editingID
	s.mu.Unlock()

	if id != "" && s.hooks.Select != nil {
		if err := s.hooks.Select(id); err != nil {
			logging.Warn("Revert selection failed",
				zap.String("class", s.class),
				zap.String("id", id),
				zap.Error(err),
			)
		}
	}
	s.Discard()
}

// Discard unconditionally resets the session to Clean. Called by every
// navigation or selection action outside the editor, and by push-driven
// list replacements. A no-op observable from Clean: listeners only fire
// when the modified state actually drops.
func (s *Session[T]) Discard() {
	s.mu.Lock()
	changed := s.state != Clean
	var zero T
	s.state = Clean
	s.editingID = ""
	s.originalLabel = ""
	s.original = zero
	s.hasOriginal = false
	s.draft = zero
	s.hasDraft = false
	s.notifyLocked(changed)
}

// notifyLocked expects s.mu held and releases it.
func (s *Session[T]) notifyLocked(changed bool) {
	var listeners []func()
	if changed {
		listeners = make([]func(), len(s.onChange))
		copy(listeners, s.onChange)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
