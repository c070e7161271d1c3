// Package session gates a connection to the login/register screens until a
// principal is known, then mounts the interface for the resolved role.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/views"
)

type State string

const (
	StateLoading         State = "loading"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

type Screen string

const (
	ScreenNone     Screen = ""
	ScreenLogin    Screen = "login"
	ScreenRegister Screen = "register"
	ScreenOfficer  Screen = "officer"
	ScreenCitizen  Screen = "citizen"
)

var (
	ErrClosed     = errors.New("session closed")
	ErrNotOfficer = errors.New("filter is only available on the officer screen")
	ErrSignedIn   = errors.New("already signed in")
)

// Snapshot is what the client renders.
type Snapshot struct {
	State  State          `json:"state"`
	Screen Screen         `json:"screen,omitempty"`
	User   *identity.User `json:"user,omitempty"`
}

// View is a mounted interface. Close releases everything it holds.
type View interface {
	Close()
}

type filterable interface {
	SetFilter(views.Filter)
}

// Mounter builds the live interface for a signed-in user.
type Mounter interface {
	MountOfficer(ctx context.Context, u identity.User) (View, error)
	MountCitizen(ctx context.Context, u identity.User) (View, error)
}

type UserResolver interface {
	Resolve(ctx context.Context, p identity.Principal) identity.User
}

// Router is the per-connection session state machine. At most one view is
// mounted at a time; it is released on sign-out and on Close.
type Router struct {
	mu       sync.Mutex
	resolver UserResolver
	mounter  Mounter
	onChange func(Snapshot)

	state  State
	screen Screen
	user   *identity.User
	view   View
	closed bool
}

func NewRouter(resolver UserResolver, mounter Mounter, onChange func(Snapshot)) *Router {
	if onChange == nil {
		onChange = func(Snapshot) {}
	}
	return &Router{resolver: resolver, mounter: mounter, onChange: onChange, state: StateLoading}
}

func (r *Router) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Router) snapshot() Snapshot {
	s := Snapshot{State: r.state, Screen: r.screen}
	if r.user != nil {
		u := *r.user
		s.User = &u
	}
	return s
}

// OnSessionChange applies the current principal: nil signs out, anything
// else signs in. The first call leaves the loading state. A failure to mount
// the interface still leaves the user signed in, with no view, and is
// returned.
func (r *Router) OnSessionChange(ctx context.Context, p *identity.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	r.release()
	if p == nil {
		r.state, r.screen, r.user = StateUnauthenticated, ScreenLogin, nil
		r.onChange(r.snapshot())
		return nil
	}

	u := r.resolver.Resolve(ctx, *p)
	r.state, r.user = StateAuthenticated, &u

	var err error
	if u.IsOfficer() {
		r.screen = ScreenOfficer
		r.view, err = r.mounter.MountOfficer(ctx, u)
	} else {
		r.screen = ScreenCitizen
		r.view, err = r.mounter.MountCitizen(ctx, u)
	}
	if err != nil {
		r.view = nil
		slog.Warn("interface mount failed", "user_id", u.ID.String(), "screen", string(r.screen), "error", err)
	}
	r.onChange(r.snapshot())
	return err
}

func (r *Router) ShowRegister() error { return r.show(ScreenRegister) }

func (r *Router) ShowLogin() error { return r.show(ScreenLogin) }

func (r *Router) show(s Screen) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.state == StateAuthenticated {
		return ErrSignedIn
	}
	r.state, r.screen = StateUnauthenticated, s
	r.onChange(r.snapshot())
	return nil
}

// SetFilter forwards f to the mounted officer dashboard.
func (r *Router) SetFilter(f views.Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	v, ok := r.view.(filterable)
	if !ok {
		return ErrNotOfficer
	}
	v.SetFilter(f)
	return nil
}

// Close releases the mounted view. It is safe to call more than once.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.release()
}

func (r *Router) release() {
	if r.view != nil {
		r.view.Close()
		r.view = nil
	}
}
