package auth

import (
	"sync"
	"time"
)

// PendingTTL bounds how long a started login may wait for its callback.
const PendingTTL = 10 * time.Minute

type pendingLogin struct {
	verifier string
	created  time.Time
}

// PendingLogins remembers the PKCE verifier for each login the server has
// started, keyed by OAuth state. Entries are single-use.
type PendingLogins struct {
	mu      sync.Mutex
	entries map[string]pendingLogin
	ttl     time.Duration
	now     func() time.Time
}

// NewPendingLogins creates an empty store with the default TTL.
func NewPendingLogins() *PendingLogins {
	return &PendingLogins{
		entries: make(map[string]pendingLogin),
		ttl:     PendingTTL,
		now:     time.Now,
	}
}

// Put records a started login.
func (p *PendingLogins) Put(pkce *PKCE) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sweep()
	p.entries[pkce.State] = pendingLogin{verifier: pkce.Verifier, created: p.now()}
}

// Take returns and forgets the verifier for state. It returns false for
// unknown or expired states.
func (p *PendingLogins) Take(state string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[state]
	if !ok {
		return "", false
	}
	delete(p.entries, state)
	if p.now().Sub(entry.created) > p.ttl {
		return "", false
	}
	return entry.verifier, true
}

// Len returns the number of logins still waiting.
func (p *PendingLogins) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *PendingLogins) sweep() {
	now := p.now()
	for state, entry := range p.entries {
		if now.Sub(entry.created) > p.ttl {
			delete(p.entries, state)
		}
	}
}
