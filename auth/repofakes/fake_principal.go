package fakeprincipal

import (
	"sync"

	"github.com/jrsteele09/go-storefront/auth"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"golang.org/x/oauth2"
)

var _ auth.Principal = (*FakePrincipal)(nil)

// FakePrincipal is a caller with a fixed token and role
type FakePrincipal struct {
	token string
	admin bool
	calls int
	lock  sync.Mutex
}

func Anonymous() *FakePrincipal {
	return &FakePrincipal{}
}

func Customer(token string) *FakePrincipal {
	return &FakePrincipal{token: token}
}

func Admin(token string) *FakePrincipal {
	return &FakePrincipal{token: token, admin: true}
}

func (p *FakePrincipal) Token() (*oauth2.Token, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.calls++
	if p.token == "" {
		return nil, errors.ErrAuthRequired
	}
	return &oauth2.Token{AccessToken: p.token, TokenType: "Bearer"}, nil
}

func (p *FakePrincipal) IsAuthenticated() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.token != ""
}

func (p *FakePrincipal) IsAdmin() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.token != "" && p.admin
}

// SignOut drops the token, as a logout would
func (p *FakePrincipal) SignOut() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.token = ""
}

// TokenCalls counts how often a token was requested
func (p *FakePrincipal) TokenCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.calls
}
