package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apollosoftdev/mm-processor/internal/common/cache"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenKey is the config-store key holding the API bearer token.
const DefaultTokenKey = "mm:auth:token"

// expiryLeeway discards a cached token slightly before its actual expiry
// so an in-flight request does not race the cutoff.
const expiryLeeway = 30 * time.Second

// TokenSource supplies the bearer token for API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// TokenProvider loads the API token from the config store on first use
// and caches it for the life of the process. A cached JWT past its exp
// claim is dropped and reloaded; Invalidate forces a reload explicitly.
type TokenProvider struct {
	store cache.Cache
	key   string

	mu     sync.Mutex
	cached string
}

// NewTokenProvider creates a token provider reading the given store key.
func NewTokenProvider(store cache.Cache, key string) *TokenProvider {
	if key == "" {
		key = DefaultTokenKey
	}
	return &TokenProvider{store: store, key: key}
}

// Token returns the cached token, loading it from the store when the
// cache is empty or the cached token has expired.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" && !tokenExpired(p.cached) {
		return p.cached, nil
	}

	if p.store == nil {
		return "", appErr.New(appErr.TokenUnavailable).WithMessage("token store is not configured")
	}
	token, err := p.store.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return "", appErr.Newf(appErr.TokenUnavailable, "no token at %s", p.key)
		}
		return "", appErr.Wrap(err, appErr.TokenUnavailable)
	}
	p.cached = token
	return token, nil
}

// Invalidate drops the cached token so the next Token call reloads it.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = ""
}

// tokenExpired reports whether a cached JWT's exp claim has passed. The
// signature is not checked here; the API is the verifier. Opaque
// (non-JWT) tokens carry no expiry we can inspect and are kept.
func tokenExpired(raw string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) < expiryLeeway
}
