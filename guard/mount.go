package guard

import (
	"context"
	"sync"

	"github.com/jrsteele09/homereno-client/sessions"
	"github.com/jrsteele09/homereno-client/users"
)

// Renderer presents the guard's outcome for one mounted view.
// Callbacks run on the guard's goroutine, one at a time.
type Renderer interface {
	// Loading is shown while a decision is pending.
	Loading()
	Content()
	Unauthorized()
	RedirectToLogin()
}

// Mount evaluates access for a view and keeps re-evaluating on every session
// change until the returned func is called. Loading is called first, then
// exactly one outcome. Later session changes render a new outcome only when
// it differs from the last one; a change that needs a refresh shows Loading
// again while the exchange runs.
func (g *Guard) Mount(ctx context.Context, allowed []users.RoleType, r Renderer) (unmount func()) {
	ctx, cancel := context.WithCancel(ctx)
	m := &mounted{
		guard:    g,
		allowed:  allowed,
		renderer: r,
		changes:  make(chan struct{}, 1),
	}

	unsubscribe := g.store.Subscribe(func(*sessions.Session) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})

	go m.run(ctx)

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			cancel()
		})
	}
}

type mounted struct {
	guard    *Guard
	allowed  []users.RoleType
	renderer Renderer
	changes  chan struct{}
	last     Decision
}

func (m *mounted) run(ctx context.Context) {
	m.renderer.Loading()
	if !m.render(ctx, m.guard.Resolve(ctx, m.allowed)) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.changes:
		}
		if ctx.Err() != nil {
			return
		}

		// The refresh and clear performed by Resolve notify subscribers too;
		// those settle on the outcome already shown and are skipped here.
		switch Evaluate(m.guard.current(), m.allowed, m.guard.now()) {
		case DecisionRefresh:
			m.renderer.Loading()
		case m.last:
			continue
		}
		if !m.render(ctx, m.guard.Resolve(ctx, m.allowed)) {
			return
		}
	}
}

// render reports false once the view has been unmounted.
func (m *mounted) render(ctx context.Context, d Decision) bool {
	if ctx.Err() != nil {
		return false
	}
	m.last = d
	switch d {
	case DecisionRender:
		m.renderer.Content()
	case DecisionUnauthorized:
		m.renderer.Unauthorized()
	default:
		m.renderer.RedirectToLogin()
	}
	return true
}
