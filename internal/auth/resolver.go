package auth

import (
	"context"
	"net/http"
)

// Resolver answers who is making a request. It re-reads and re-verifies the
// session cookie on every call.
type Resolver struct {
	codec   *TokenCodec
	cookies *CookieStore
}

// NewResolver composes a codec and cookie store.
func NewResolver(codec *TokenCodec, cookies *CookieStore) *Resolver {
	return &Resolver{codec: codec, cookies: cookies}
}

// FromRequest resolves the caller from the request cookie header.
func (r *Resolver) FromRequest(req *http.Request) *Identity {
	if req == nil {
		return nil
	}
	id, _ := r.Lookup(req)
	return id
}

// FromContext resolves the caller from cookies attached with WithCookieSource.
func (r *Resolver) FromContext(ctx context.Context) *Identity {
	id, _ := r.Lookup(cookieSourceFromContext(ctx))
	return id
}

// Lookup returns the identity for src and whether a session cookie was
// present at all.
func (r *Resolver) Lookup(src CookieSource) (*Identity, bool) {
	token, ok := r.cookies.Read(src)
	if !ok {
		return nil, false
	}
	return r.codec.Decode(token), true
}
