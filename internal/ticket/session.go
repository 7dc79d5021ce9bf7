// Package ticket owns the state of one order-entry ticket: the raw inputs the
// trader is typing, the trailing-debounced recompute loop that feeds them to
// the prefill engine, and the per-field override protocol that decides how
// trader edits survive each recompute. Rendering layers only read Snapshots;
// they never own any of this state.
package ticket

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ksred/auo-api/internal/types"
)

// DefaultDebounce is the quiet period after the last edit before a recompute
// fires. Leading edits are coalesced; only the trailing state is computed.
const DefaultDebounce = 300 * time.Millisecond

// defaultTimeToCloseMinutes is where a fresh ticket's clock slider starts.
const defaultTimeToCloseMinutes = 25

// Computer produces a PrefillResult for an order input. Implemented by
// prefill.Service; tests substitute fakes.
type Computer interface {
	ComputePrefill(ctx context.Context, input types.OrderInput) (*types.PrefillResult, error)
}

// FieldState is the per-field half of the override protocol.
type FieldState int

const (
	// StateInferred fields track the latest engine output.
	StateInferred FieldState = iota
	// StateOverridden fields hold a trader-typed value; engine output for
	// them is ignored on every redraw until the ticket is reset.
	StateOverridden
)

// Status is the ticket-wide computation state.
type Status int

const (
	// StatusWaiting: required inputs missing, engine idle, no result shown.
	StatusWaiting Status = iota
	// StatusComputing: a recompute is pending or in flight.
	StatusComputing
	// StatusReady: the displayed state reflects the latest accepted result.
	StatusReady
)

// FieldView is what the rendering layer sees for one field: the display value
// plus the override state and the transient changed flag. Changed marks a
// still-inferred field whose value moved on the last recompute; renderers
// flash it and then call AckChanges.
type FieldView struct {
	Value      any
	Confidence types.Confidence
	Rationale  string
	State      FieldState
	Changed    bool
}

// Snapshot is an immutable copy of the ticket state for rendering.
type Snapshot struct {
	Status Status
	Result *types.PrefillResult
	Fields map[string]FieldView
	Err    error
}

// Session is the state machine for one ticket. All methods are safe for
// concurrent use; the recompute fires on a timer goroutine.
type Session struct {
	mu       sync.Mutex
	computer Computer
	debounce time.Duration
	onUpdate func(Snapshot)

	input     types.OrderInput
	overrides map[string]any
	views     map[string]FieldView
	result    *types.PrefillResult
	status    Status
	lastErr   error

	// gen invalidates both pending timers and in-flight computes: a newer
	// edit supersedes an older recompute, whose late result is discarded.
	gen    uint64
	timer  *time.Timer
	closed bool
}

// NewSession creates an idle ticket. A zero debounce falls back to
// DefaultDebounce.
func NewSession(computer Computer, debounce time.Duration) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Session{
		computer:  computer,
		debounce:  debounce,
		input:     types.OrderInput{TimeToCloseMinutes: defaultTimeToCloseMinutes},
		overrides: make(map[string]any),
		views:     make(map[string]FieldView),
		status:    StatusWaiting,
	}
}

// SetOnUpdate registers the render callback invoked after every state change.
// The callback runs outside the session lock and may call back into the
// session.
func (s *Session) SetOnUpdate(fn func(Snapshot)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

func (s *Session) SetSymbol(symbol string) {
	s.edit(func(in *types.OrderInput) { in.Symbol = symbol })
}

func (s *Session) SetCounterparty(id string) {
	s.edit(func(in *types.OrderInput) { in.CounterpartyID = id })
}

func (s *Session) SetQuantity(quantity int64) {
	s.edit(func(in *types.OrderInput) { in.Quantity = quantity })
}

func (s *Session) SetNotes(notes string) {
	s.edit(func(in *types.OrderInput) { in.Notes = notes })
}

func (s *Session) SetTimeToClose(minutes int) {
	s.edit(func(in *types.OrderInput) { in.TimeToCloseMinutes = minutes })
}

// Override records a trader edit on a field, effective immediately: the field
// moves to StateOverridden with no debounce, even though recomputes stay
// debounced. Overriding the driver field (side) additionally feeds the value
// back into the order input and schedules a full re-inference so every
// side-dependent field is recomputed consistently. All other overrides are
// cosmetic and never touch other fields.
func (s *Session) Override(name string, value any) {
	s.mu.Lock()
	s.overrides[name] = value

	view := s.views[name]
	view.Value = value
	view.State = StateOverridden
	view.Changed = false
	s.views[name] = view

	if name == types.DriverField {
		s.input.ManualSide = sideOf(value)
		s.scheduleLocked()
	}
	s.notifyAndUnlock()
}

// Reset clears the whole ticket: inputs, result, and every override. This is
// the only way a field returns from Overridden to Inferred.
func (s *Session) Reset() {
	s.mu.Lock()
	s.gen++
	s.stopTimerLocked()
	s.input = types.OrderInput{TimeToCloseMinutes: defaultTimeToCloseMinutes}
	s.overrides = make(map[string]any)
	s.views = make(map[string]FieldView)
	s.result = nil
	s.lastErr = nil
	s.status = StatusWaiting
	s.notifyAndUnlock()
}

// AckChanges clears the transient changed flags after the renderer has
// flashed them.
func (s *Session) AckChanges() {
	s.mu.Lock()
	for name, view := range s.views {
		if view.Changed {
			view.Changed = false
			s.views[name] = view
		}
	}
	s.mu.Unlock()
}

// Snapshot returns an immutable copy of the current ticket state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Input returns a copy of the order input the next recompute would use.
func (s *Session) Input() types.OrderInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Close cancels any pending recompute. The session discards results that
// arrive afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.stopTimerLocked()
	s.mu.Unlock()
}

// edit applies one raw input change and reschedules the debounce window.
func (s *Session) edit(mutate func(*types.OrderInput)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	mutate(&s.input)
	s.scheduleLocked()
	s.notifyAndUnlock()
}

// scheduleLocked supersedes any pending or in-flight recompute and, when the
// input is structurally valid, arms a fresh trailing-debounce timer. Invalid
// input parks the ticket in StatusWaiting with the result cleared; overrides
// survive, since only Reset clears them.
func (s *Session) scheduleLocked() {
	s.gen++
	s.stopTimerLocked()

	if !validInput(s.input) {
		s.result = nil
		s.status = StatusWaiting
		s.lastErr = nil
		return
	}

	s.status = StatusComputing
	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() {
		s.fire(gen)
	})
}

// fire runs the recompute scheduled for generation gen. The compute itself
// runs outside the lock; the generation is re-checked before the merge so a
// slow response for superseded inputs can never overwrite fresher state.
func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	input := s.input
	s.mu.Unlock()

	result, err := s.computer.ComputePrefill(context.Background(), input)

	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		log.Debug().
			Str("component", "ticket").
			Str("symbol", input.Symbol).
			Msg("discarding stale prefill result")
		return
	}

	if err != nil {
		// Keep the last good result on screen; the next debounce cycle is
		// the retry.
		s.lastErr = err
		if s.result != nil {
			s.status = StatusReady
		} else {
			s.status = StatusWaiting
		}
		log.Warn().
			Str("component", "ticket").
			Err(err).
			Msg("prefill recompute failed, keeping last good state")
	} else {
		s.mergeLocked(result)
	}
	s.notifyAndUnlock()
}

// mergeLocked replaces the whole result and rebuilds the field views in one
// atomic step: overridden fields keep their trader value, inferred fields take
// the new engine value and flag whether it moved since the previous recompute.
func (s *Session) mergeLocked(result *types.PrefillResult) {
	previous := s.views
	views := make(map[string]FieldView, len(result.Fields))

	for name, inferred := range result.Fields {
		if value, ok := s.overrides[name]; ok {
			views[name] = FieldView{
				Value:      value,
				Confidence: inferred.Confidence,
				Rationale:  inferred.Rationale,
				State:      StateOverridden,
			}
			continue
		}

		changed := false
		if prev, ok := previous[name]; ok && prev.State == StateInferred && prev.Value != inferred.Value {
			changed = true
		}
		views[name] = FieldView{
			Value:      inferred.Value,
			Confidence: inferred.Confidence,
			Rationale:  inferred.Rationale,
			State:      StateInferred,
			Changed:    changed,
		}
	}

	s.views = views
	s.result = result
	s.lastErr = nil
	s.status = StatusReady
}

// notifyAndUnlock snapshots under the lock, releases it, then invokes the
// render callback so callbacks can safely re-enter the session.
func (s *Session) notifyAndUnlock() {
	snapshot := s.snapshotLocked()
	callback := s.onUpdate
	s.mu.Unlock()
	if callback != nil {
		callback(snapshot)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	fields := make(map[string]FieldView, len(s.views))
	for name, view := range s.views {
		fields[name] = view
	}
	return Snapshot{
		Status: s.status,
		Result: s.result,
		Fields: fields,
		Err:    s.lastErr,
	}
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func validInput(input types.OrderInput) bool {
	return input.Symbol != "" &&
		input.CounterpartyID != "" &&
		input.Quantity > 0 &&
		input.TimeToCloseMinutes >= 0
}

func sideOf(value any) types.Side {
	switch v := value.(type) {
	case types.Side:
		return v
	case string:
		return types.Side(v)
	default:
		return ""
	}
}
