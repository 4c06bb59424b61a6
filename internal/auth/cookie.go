package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// CookieName is the name of the session cookie carrying the token.
const CookieName = "auth-token"

// ErrCookieWrite reports that the session cookie could not be attached.
var ErrCookieWrite = errors.New("auth: session cookie not written")

// CookieSource is anything that can look up a request cookie by name.
// *http.Request and CookieJar both satisfy it.
type CookieSource interface {
	Cookie(name string) (*http.Cookie, error)
}

// CookieJar is a snapshot of request cookies usable outside the request
// value itself, e.g. from a context in server-rendered handlers.
type CookieJar []*http.Cookie

// Cookie returns the named cookie or http.ErrNoCookie.
func (j CookieJar) Cookie(name string) (*http.Cookie, error) {
	for _, c := range j {
		if c != nil && c.Name == name {
			return c, nil
		}
	}
	return nil, http.ErrNoCookie
}

// CookieStore reads and writes the session cookie.
type CookieStore struct {
	secure bool
	logger *slog.Logger
}

// NewCookieStore builds a CookieStore. Secure should be true in production.
func NewCookieStore(secure bool, logger *slog.Logger) *CookieStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CookieStore{secure: secure, logger: logger}
}

// Write attaches token to the response. A failure is logged and returned but
// callers are expected to complete the response regardless.
func (s *CookieStore) Write(w http.ResponseWriter, token string) error {
	if w == nil {
		return s.fail(errors.New("nil response writer"))
	}
	if token == "" {
		return s.fail(errors.New("empty token"))
	}
	cookie := s.cookie(token, int(TokenTTL/time.Second))
	if err := cookie.Valid(); err != nil {
		return s.fail(err)
	}
	setCookie(w, cookie)
	return nil
}

// Clear expires the session cookie on the client.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	if w == nil {
		return
	}
	// A negative MaxAge is serialised as Max-Age=0.
	setCookie(w, s.cookie("", -1))
}

// Read returns the raw token from src. A missing cookie is reported as absent.
func (s *CookieStore) Read(src CookieSource) (string, bool) {
	if src == nil {
		return "", false
	}
	cookie, err := src.Cookie(CookieName)
	if err != nil || cookie == nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (s *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *CookieStore) fail(cause error) error {
	err := fmt.Errorf("%w: %v", ErrCookieWrite, cause)
	s.logger.Warn("set session cookie", slog.Any("error", err))
	return err
}

// setCookie replaces any Set-Cookie header already queued for the same
// cookie so the response carries a single instruction per name.
func setCookie(w http.ResponseWriter, cookie *http.Cookie) {
	header := w.Header()
	prefix := cookie.Name + "="
	existing := header.Values("Set-Cookie")
	kept := make([]string, 0, len(existing))
	for _, v := range existing {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	header.Del("Set-Cookie")
	for _, v := range kept {
		header.Add("Set-Cookie", v)
	}
	header.Add("Set-Cookie", cookie.String())
}
