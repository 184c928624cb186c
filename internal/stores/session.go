package stores

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
)

// SessionProvider owns the signed-in identity for the process.
//
// It starts in the loading state until Resolve completes; dependent stores
// must defer mutations while loading. Identity transitions observed from the
// provider (or from the identity backend itself) are fanned out to
// subscribers and to any registered identity watchers.
type SessionProvider struct {
	observable

	identity services.IdentityProvider
	notifier Notifier
	logger   *log.Logger

	stateMu  sync.Mutex
	session  *models.Session
	loading  bool
	watchers []func(*models.Session)
	cancel   func()
}

// NewSessionProvider creates a provider bound to an identity backend.
// The provider stays in the loading state until Resolve is called.
func NewSessionProvider(identity services.IdentityProvider, notifier Notifier, logger *log.Logger) *SessionProvider {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	p := &SessionProvider{
		identity: identity,
		notifier: notifier,
		logger:   logger,
		loading:  true,
	}

	p.cancel = identity.OnChange(p.handleChange)
	return p
}

// Resolve asks the identity backend for any existing session and clears the
// loading flag. A resolution failure leaves the provider signed out.
func (p *SessionProvider) Resolve(ctx context.Context) {
	session, err := p.identity.Current(ctx)
	if err != nil {
		p.logger.Warn("session resolution failed", "error", err)
		session = nil
	}

	p.stateMu.Lock()
	p.loading = false
	changed := !sameIdentity(p.session, session)
	p.session = session
	p.stateMu.Unlock()

	if changed {
		p.fanOut(session)
	}
	p.publish()
}

// Session returns the current session, or nil when signed out or loading.
func (p *SessionProvider) Session() *models.Session {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.loading {
		return nil
	}
	return p.session
}

// Loading reports whether identity resolution is still in flight.
func (p *SessionProvider) Loading() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.loading
}

// Require returns the current session or fails fast when none is present.
// Callers use it as the authorization gate before any remote mutation.
func (p *SessionProvider) Require() (*models.Session, error) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if p.loading {
		return nil, fmt.Errorf("%w: identity still resolving", shared.ErrNotAuthenticated)
	}
	if p.session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if p.session.Expired() {
		return nil, shared.ErrSessionExpired
	}
	return p.session, nil
}

// OnIdentity registers a watcher fired on every identity transition with the
// new session (nil on sign-out). Dependent stores use this to re-fetch on
// sign-in and clear their mirrors on sign-out.
func (p *SessionProvider) OnIdentity(fn func(*models.Session)) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.watchers = append(p.watchers, fn)
}

// SignOut revokes the session. Local identity state is always cleared, even
// when the remote revoke fails; the failure is reported through the notifier
// rather than returned, so the UI never ends up authenticated-but-broken.
func (p *SessionProvider) SignOut(ctx context.Context) {
	err := p.identity.SignOut(ctx)

	p.stateMu.Lock()
	cleared := p.session != nil
	p.session = nil
	p.loading = false
	p.stateMu.Unlock()

	if err != nil {
		p.logger.Warn("remote sign out failed, local session cleared", "error", err)
		p.notifier.Notify(Notification{Level: LevelError, Message: "Error signing out"})
	} else {
		p.notifier.Notify(Notification{Level: LevelInfo, Message: "Signed out successfully"})
	}

	if cleared {
		p.fanOut(nil)
	}
	p.publish()
}

// Close cancels the identity backend subscription.
func (p *SessionProvider) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

// handleChange reacts to transitions reported by the identity backend.
func (p *SessionProvider) handleChange(session *models.Session) {
	p.stateMu.Lock()
	changed := !sameIdentity(p.session, session)
	p.session = session
	p.loading = false
	p.stateMu.Unlock()

	if changed {
		p.fanOut(session)
	}
	p.publish()
}

func (p *SessionProvider) fanOut(session *models.Session) {
	p.stateMu.Lock()
	watchers := make([]func(*models.Session), len(p.watchers))
	copy(watchers, p.watchers)
	p.stateMu.Unlock()

	for _, fn := range watchers {
		fn(session)
	}
}

func sameIdentity(a, b *models.Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UserID == b.UserID
}
