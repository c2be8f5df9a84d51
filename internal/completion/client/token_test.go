package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/apollosoftdev/mm-processor/internal/common/cache"
	"github.com/apollosoftdev/mm-processor/internal/completion/client"
	appErr "github.com/apollosoftdev/mm-processor/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
)

func newTokenStore(t *testing.T) (*miniredis.Miniredis, cache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := cache.NewRedisCache(mr.Addr())
	if err != nil {
		t.Fatalf("init redis cache failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return raw
}

func TestTokenProviderLoadsAndCaches(t *testing.T) {
	t.Parallel()
	mr, store := newTokenStore(t)
	mr.Set(client.DefaultTokenKey, "opaque-token")

	provider := client.NewTokenProvider(store, "")
	token, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("token load failed: %v", err)
	}
	if token != "opaque-token" {
		t.Fatalf("unexpected token: %s", token)
	}

	// The cached token survives the store key vanishing.
	mr.Del(client.DefaultTokenKey)
	token, err = provider.Token(context.Background())
	if err != nil {
		t.Fatalf("cached token failed: %v", err)
	}
	if token != "opaque-token" {
		t.Fatalf("expected cached token, got %s", token)
	}
}

func TestTokenProviderInvalidateForcesReload(t *testing.T) {
	t.Parallel()
	mr, store := newTokenStore(t)
	mr.Set(client.DefaultTokenKey, "token-a")

	provider := client.NewTokenProvider(store, "")
	if _, err := provider.Token(context.Background()); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	mr.Set(client.DefaultTokenKey, "token-b")
	provider.Invalidate()

	token, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if token != "token-b" {
		t.Fatalf("expected reloaded token, got %s", token)
	}
}

func TestTokenProviderReloadsExpiredJWT(t *testing.T) {
	t.Parallel()
	mr, store := newTokenStore(t)
	expired := signedToken(t, time.Now().Add(-time.Minute))
	mr.Set(client.DefaultTokenKey, expired)

	provider := client.NewTokenProvider(store, "")
	if _, err := provider.Token(context.Background()); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	fresh := signedToken(t, time.Now().Add(time.Hour))
	mr.Set(client.DefaultTokenKey, fresh)

	token, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if token != fresh {
		t.Fatalf("expected expired token to be replaced")
	}
}

func TestTokenProviderKeepsUnexpiredJWT(t *testing.T) {
	t.Parallel()
	mr, store := newTokenStore(t)
	valid := signedToken(t, time.Now().Add(time.Hour))
	mr.Set(client.DefaultTokenKey, valid)

	provider := client.NewTokenProvider(store, "")
	if _, err := provider.Token(context.Background()); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	mr.Set(client.DefaultTokenKey, "should-not-be-read")
	token, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("cached token failed: %v", err)
	}
	if token != valid {
		t.Fatalf("expected cached JWT to be kept")
	}
}

func TestTokenProviderMissingKey(t *testing.T) {
	t.Parallel()
	_, store := newTokenStore(t)
	provider := client.NewTokenProvider(store, "mm:auth:absent")

	_, err := provider.Token(context.Background())
	if err == nil || !appErr.Is(err, appErr.TokenUnavailable) {
		t.Fatalf("expected TokenUnavailable, got %v", err)
	}
}
