package auth

import "context"

type cookieSourceKey struct{}

// WithCookieSource stores the request cookies in ctx for server-side identity
// resolution.
func WithCookieSource(ctx context.Context, src CookieSource) context.Context {
	return context.WithValue(ctx, cookieSourceKey{}, src)
}

func cookieSourceFromContext(ctx context.Context) CookieSource {
	if ctx == nil {
		return nil
	}
	src, _ := ctx.Value(cookieSourceKey{}).(CookieSource)
	return src
}
