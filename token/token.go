package token

import (
	"sync"
	"sync/atomic"

	"github.com/hupe1980/jobmem"
)

// State is the access state of a Token.
type State uint32

const (
	// Valid permits single-owner access through the primary handle.
	Valid State = iota
	// ValidShared permits access through outstanding secondary handles only.
	ValidShared
	// Released permits no access.
	Released
)

func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case ValidShared:
		return "valid-shared"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// Mode restricts what a handle may do.
type Mode uint8

const (
	// ReadWrite permits reads and writes.
	ReadWrite Mode = iota
	// ReadOnly permits reads only.
	ReadOnly
	// WriteOnly permits writes only (parallel accumulating writers).
	WriteOnly
)

// Token validates access to exactly one buffer.
type Token struct {
	mu      sync.Mutex // serializes state transitions; checks are lock-free
	dead    bool       // version bumped; no handle validates anymore
	state   atomic.Uint32
	version atomic.Uint32
	epoch   atomic.Uint32
	shared  atomic.Int32
}

// Handle is a non-owning back-reference to a Token, held by containers and views.
// The zero Handle is invalid.
type Handle struct {
	t         *Token
	version   uint32
	epoch     uint32
	mode      Mode
	secondary bool
}

// New returns a token in the Valid state.
func New() *Token {
	t := &Token{}
	// Start at 1 so the zero Handle never matches.
	t.version.Store(1)
	t.epoch.Store(1)
	return t
}

// State returns the current state.
func (t *Token) State() State {
	return State(t.state.Load())
}

// Version returns the current generation.
func (t *Token) Version() uint32 {
	return t.version.Load()
}

// Shared returns the number of outstanding secondary handles.
func (t *Token) Shared() int {
	return int(t.shared.Load())
}

// InUse reports whether secondary handles are outstanding.
// The answer is best-effort when other goroutines are beginning or ending views.
func (t *Token) InUse() bool {
	return t.shared.Load() > 0
}

// Primary returns the owner's handle.
func (t *Token) Primary() Handle {
	return Handle{t: t, version: t.version.Load(), mode: ReadWrite}
}

// BeginShared derives a secondary handle with the given mode without
// invalidating the primary one. The token enters ValidShared.
func (t *Token) BeginShared(mode Mode) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if State(t.state.Load()) == Released {
		return Handle{}, jobmem.Errorf("token.BeginShared", jobmem.UseAfterRelease, nil)
	}
	t.shared.Add(1)
	t.state.Store(uint32(ValidShared))
	return Handle{
		t:         t,
		version:   t.version.Load(),
		epoch:     t.epoch.Load(),
		mode:      mode,
		secondary: true,
	}, nil
}

// EndShared returns a secondary handle. When the last one is returned the
// token goes back to Valid and every secondary handle of the finished epoch
// becomes stale.
func (t *Token) EndShared(h Handle) error {
	const op = "token.EndShared"
	if h.t != t || !h.secondary {
		return jobmem.Errorf(op, jobmem.ConcurrentAccessViolation, nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if h.epoch != t.epoch.Load() || t.shared.Load() == 0 {
		return jobmem.Errorf(op, jobmem.DoubleRelease, nil)
	}
	if t.shared.Add(-1) == 0 {
		t.epoch.Add(1)
		if State(t.state.Load()) == ValidShared {
			t.state.Store(uint32(Valid))
		}
	}
	return nil
}

// Release transitions to Released. It fails with StillInUse while secondary
// handles are outstanding and with DoubleRelease on a released token.
func (t *Token) Release() error {
	const op = "token.Release"

	t.mu.Lock()
	defer t.mu.Unlock()

	if State(t.state.Load()) == Released {
		return jobmem.Errorf(op, jobmem.DoubleRelease, nil)
	}
	if t.shared.Load() > 0 {
		return jobmem.Errorf(op, jobmem.StillInUse, nil)
	}
	t.releaseLocked()
	return nil
}

// Retire transitions to Released regardless of outstanding secondary handles.
// The primary handle and BeginShared fail from now on, but secondary handles
// of the current epoch stay usable until they are returned with EndShared or
// the token is invalidated.
func (t *Token) Retire() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if State(t.state.Load()) == Released {
		return jobmem.Errorf("token.Retire", jobmem.DoubleRelease, nil)
	}
	t.state.Store(uint32(Released))
	return nil
}

// Invalidate releases the token and bumps its generation, so that every
// handle issued so far fails. It is called when the guarded memory is freed
// and is a no-op on an invalidated token.
func (t *Token) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLocked()
}

func (t *Token) releaseLocked() {
	t.state.Store(uint32(Released))
	if !t.dead {
		t.dead = true
		t.version.Add(1)
	}
}

// Token returns the token h refers to.
func (h Handle) Token() *Token { return h.t }

// Mode returns the access mode of h.
func (h Handle) Mode() Mode { return h.mode }

// Secondary reports whether h was derived with BeginShared.
func (h Handle) Secondary() bool { return h.secondary }

// Valid reports whether h still refers to a live generation of its token.
func (h Handle) Valid() bool {
	return h.validate("token.Valid") == nil
}

func (h Handle) validate(op string) error {
	t := h.t
	if t == nil {
		return jobmem.Errorf(op, jobmem.UseAfterRelease, nil)
	}
	if h.version != t.version.Load() {
		return jobmem.Errorf(op, jobmem.UseAfterRelease, nil)
	}
	if h.secondary {
		// The epoch ends when the last secondary handle is returned.
		if h.epoch != t.epoch.Load() {
			return jobmem.Errorf(op, jobmem.UseAfterRelease, nil)
		}
		return nil
	}
	if State(t.state.Load()) == Released {
		return jobmem.Errorf(op, jobmem.UseAfterRelease, nil)
	}
	if t.shared.Load() > 0 {
		return jobmem.Errorf(op, jobmem.ConcurrentAccessViolation, nil)
	}
	return nil
}

func (h Handle) checkRead() error {
	const op = "token.CheckRead"
	if err := h.validate(op); err != nil {
		return err
	}
	if h.mode == WriteOnly {
		return jobmem.Errorf(op, jobmem.ConcurrentAccessViolation, nil)
	}
	return nil
}

func (h Handle) checkWrite() error {
	const op = "token.CheckWrite"
	if err := h.validate(op); err != nil {
		return err
	}
	if h.mode == ReadOnly {
		return jobmem.Errorf(op, jobmem.ConcurrentAccessViolation, nil)
	}
	return nil
}
