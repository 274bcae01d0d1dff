package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/shared"
)

// Phase is the state of one login [Attempt].
type Phase int

const (
	Idle Phase = iota
	AwaitingCallback
	Authorized
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case AwaitingCallback:
		return "awaiting_callback"
	case Authorized:
		return "authorized"
	case Rejected:
		return "rejected"
	default:
		return ""
	}
}

// Attempt is a single login, from nonce issue to a terminal phase.
type Attempt struct {
	flow        *Flow
	mu          sync.Mutex
	phase       Phase
	state       string
	redirectURL string
}

// State returns the nonce the caller must persist until the callback. Empty once consumed.
func (a *Attempt) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// RedirectURL is the authorization endpoint URL carrying response_type=code, client_id, scope, redirect_uri and state.
func (a *Attempt) RedirectURL() string {
	return a.redirectURL
}

// Phase returns the current phase.
func (a *Attempt) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Complete handles the authorization server's callback.
//
// receivedState must equal the stored nonce byte for byte. A match consumes the nonce before the exchange, so a repeated callback fails with [shared.ErrStateMismatch] whatever its code.
func (a *Attempt) Complete(ctx context.Context, code, receivedState string) (*models.TokenPair, error) {
	a.mu.Lock()
	if a.phase != AwaitingCallback || receivedState == "" || receivedState != a.state {
		// A consumed nonce with the exchange still in flight keeps its phase.
		if a.phase == Idle || (a.phase == AwaitingCallback && a.state != "") {
			a.phase = Rejected
		}
		a.mu.Unlock()
		return nil, shared.ErrStateMismatch
	}
	a.state = ""
	a.mu.Unlock()

	if code == "" {
		a.finish(Rejected)
		return nil, fmt.Errorf("%w: no authorization code in callback", shared.ErrTokenExchangeFailed)
	}

	pair, err := a.flow.exchange(ctx, code)
	if err != nil {
		a.finish(Rejected)
		return nil, err
	}

	a.finish(Authorized)
	return pair, nil
}

func (a *Attempt) finish(p Phase) {
	a.mu.Lock()
	a.phase = p
	a.mu.Unlock()
}
