package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/surface"
)

// Identity is the part of the session the gate reads and purges.
type Identity interface {
	Authenticated() bool
	SignOut(ctx context.Context) error
}

// DraftSource reports whether a purchase is waiting to be resumed.
type DraftSource interface {
	Current() (domain.DraftOrder, bool)
}

// Gate suspends identity-requiring actions behind login and resumes them
// afterwards. The destination to resume to is recorded explicitly when the
// gate interrupts, never inferred from navigation history.
type Gate struct {
	identity Identity
	drafts   DraftSource
	nav      surface.Navigator
	notify   surface.Notifier
	log      *slog.Logger

	mu       sync.Mutex
	returnTo surface.Destination
}

func NewGate(identity Identity, drafts DraftSource, nav surface.Navigator, notify surface.Notifier, log *slog.Logger) *Gate {
	return &Gate{
		identity: identity,
		drafts:   drafts,
		nav:      nav,
		notify:   notify,
		log:      log,
	}
}

// EnsureAuthenticated returns true when the shopper is signed in. Otherwise
// it remembers from, sends the shopper to login and returns false; the
// caller must treat its action as not having happened. Drafts are kept.
func (g *Gate) EnsureAuthenticated(ctx context.Context, from surface.Destination) bool {
	if g.identity.Authenticated() {
		return true
	}

	g.mu.Lock()
	g.returnTo = from
	g.mu.Unlock()

	g.notify.Notify(ctx, "please log in first")
	g.nav.Present(ctx, surface.To(surface.Login))
	return false
}

// Resume picks where to go after a successful login: checkout when a draft
// is waiting, else wherever the gate interrupted, else home.
func (g *Gate) Resume(ctx context.Context) surface.Destination {
	g.mu.Lock()
	dest := g.returnTo
	g.returnTo = surface.Destination{}
	g.mu.Unlock()

	if _, ok := g.drafts.Current(); ok {
		dest = surface.To(surface.Checkout)
	} else if dest.IsZero() {
		dest = surface.To(surface.Home)
	}

	g.nav.Present(ctx, dest)
	return dest
}

// HandleUnauthorized is the process-wide reaction to a rejected token.
func (g *Gate) HandleUnauthorized(ctx context.Context) {
	if err := g.identity.SignOut(ctx); err != nil {
		g.log.ErrorContext(ctx, "failed to purge session after 401", "error", err)
	}
	g.notify.Notify(ctx, "login expired, please log in again")
	g.nav.Reset(ctx, surface.To(surface.Home))
}
