package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, now func() time.Time) (*Resolver, *TokenCodec) {
	t.Helper()
	codec := newTestCodec(now)
	return NewResolver(codec, NewCookieStore(false, quietLogger())), codec
}

func TestResolverAdaptersAgree(t *testing.T) {
	resolver, codec := newTestResolver(t, nil)
	want := Identity{ID: "u-1", Email: "a@kikaiya.example", Name: "A", Role: RoleEditor, IsActive: true}
	token, err := codec.Encode(want)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})

	fromRequest := resolver.FromRequest(req)
	require.NotNil(t, fromRequest)
	assert.Equal(t, want, *fromRequest)

	ctx := WithCookieSource(context.Background(), CookieJar(req.Cookies()))
	fromContext := resolver.FromContext(ctx)
	require.NotNil(t, fromContext)
	assert.Equal(t, *fromRequest, *fromContext)
}

func TestResolverNoIdentity(t *testing.T) {
	resolver, _ := newTestResolver(t, nil)

	assert.Nil(t, resolver.FromRequest(nil))
	assert.Nil(t, resolver.FromContext(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	id, present := resolver.Lookup(req)
	assert.Nil(t, id)
	assert.False(t, present)

	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged.token.value"})
	id, present = resolver.Lookup(req)
	assert.Nil(t, id)
	assert.True(t, present)
	assert.Nil(t, resolver.FromContext(WithCookieSource(context.Background(), CookieJar(req.Cookies()))))
}

func TestResolverRereadsEveryCall(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	now := issued
	resolver, codec := newTestResolver(t, func() time.Time { return now })
	token, err := codec.Encode(Identity{ID: "u-1", Email: "a@kikaiya.example", IsActive: true})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	require.NotNil(t, resolver.FromRequest(req))

	now = issued.Add(TokenTTL)
	assert.Nil(t, resolver.FromRequest(req))
}
