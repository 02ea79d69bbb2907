package client

import (
	"context"
	"errors"
	"sync"
)

// ErrToggleInFlight is returned by Flip while a previous flip is unresolved.
var ErrToggleInFlight = errors.New("client: toggle already in flight")

// State is the visible state of a toggle.
type State struct {
	On      bool
	Count   int
	Pending bool
}

// ToggleResult is what the server reports after a toggle. When Canonical is
// false the optimistic value is kept.
type ToggleResult struct {
	On        bool
	Count     int
	Canonical bool
}

// ToggleFunc performs the server side of a flip.
type ToggleFunc func(ctx context.Context) (ToggleResult, error)

// Toggle drives a boolean relationship (liked, subscribed) optimistically:
// the flip is visible at once and rolled back if the request fails.
//
// It is Idle or Pending. Flip from Idle applies the optimistic value and
// becomes Pending until the request resolves; Flip while Pending is rejected.
type Toggle struct {
	mu       sync.Mutex
	current  State
	previous State
	do       ToggleFunc
	onChange func(State)
}

// NewToggle starts Idle at the given value.
func NewToggle(on bool, count int, do ToggleFunc) *Toggle {
	if count < 0 {
		count = 0
	}
	return &Toggle{current: State{On: on, Count: count}, do: do}
}

// OnChange registers fn to observe every visible transition: the optimistic
// flip, the commit and the rollback. fn runs without the toggle's lock held.
func (t *Toggle) OnChange(fn func(State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

func (t *Toggle) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Flip toggles the value. On failure the previous value and count are
// restored exactly and the request error is returned.
func (t *Toggle) Flip(ctx context.Context) (State, error) {
	t.mu.Lock()
	if t.current.Pending {
		s := t.current
		t.mu.Unlock()
		return s, ErrToggleInFlight
	}

	t.previous = t.current
	t.current.On = !t.current.On
	if t.current.On {
		t.current.Count++
	} else if t.current.Count > 0 {
		t.current.Count--
	}
	t.current.Pending = true
	optimistic, notify := t.current, t.onChange
	t.mu.Unlock()

	if notify != nil {
		notify(optimistic)
	}

	res, err := t.do(ctx)

	t.mu.Lock()
	switch {
	case err != nil:
		t.current = t.previous
	case res.Canonical:
		t.current = State{On: res.On, Count: res.Count}
	default:
		t.current.Pending = false
	}
	final, notify := t.current, t.onChange
	t.mu.Unlock()

	if notify != nil {
		notify(final)
	}
	return final, err
}
