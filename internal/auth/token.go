package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of an issued session token.
const TokenTTL = 24 * time.Hour

// ErrSigning is returned when a token cannot be issued. Login must not proceed.
var ErrSigning = errors.New("auth: token signing failed")

// Rejection reasons. They are logged but never returned past Decode.
var (
	errMalformedToken    = errors.New("malformed token")
	errSignatureMismatch = errors.New("signature mismatch")
	errTokenExpired      = errors.New("token expired")
	errIncompletePayload = errors.New("incomplete payload")
)

type tokenClaims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 signed session tokens.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
	logger *slog.Logger
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used to report rejected tokens.
func WithLogger(logger *slog.Logger) CodecOption {
	return func(c *TokenCodec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewTokenCodec constructs a codec signing with the given secret.
func NewTokenCodec(secret []byte, opts ...CodecOption) *TokenCodec {
	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode signs the identity into a token expiring TokenTTL after issuance.
func (c *TokenCodec) Encode(id Identity) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("%w: signing secret not configured", ErrSigning)
	}
	id = id.normalized()
	issuedAt := c.clock()
	claims := tokenClaims{
		UserID:   id.ID,
		Email:    id.Email,
		Name:     id.Name,
		Role:     id.Role,
		IsActive: id.IsActive,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Decode returns the identity carried by token, or nil when the token is
// malformed, forged, expired or incomplete.
func (c *TokenCodec) Decode(token string) *Identity {
	if token == "" {
		return nil
	}
	id, err := c.verify(token)
	if err != nil {
		level := slog.LevelDebug
		if errors.Is(err, errSignatureMismatch) {
			level = slog.LevelWarn
		}
		c.logger.Log(context.Background(), level, "session token rejected", slog.String("reason", err.Error()))
		return nil
	}
	return &id
}

func (c *TokenCodec) verify(token string) (Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, c.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.clock),
	)
	if err != nil {
		return Identity{}, classify(err)
	}
	if !parsed.Valid {
		return Identity{}, errMalformedToken
	}
	id := Identity{
		ID:       claims.UserID,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
		IsActive: claims.IsActive,
	}
	if !id.Complete() {
		return Identity{}, errIncompletePayload
	}
	return id.normalized(), nil
}

func (c *TokenCodec) key(*jwt.Token) (any, error) {
	if len(c.secret) == 0 {
		return nil, errors.New("signing secret not configured")
	}
	return c.secret, nil
}

// clock returns the current time at second granularity; a token is expired
// from the exact second of its exp claim onward.
func (c *TokenCodec) clock() time.Time {
	return c.now().Truncate(time.Second)
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errSignatureMismatch
	default:
		return errMalformedToken
	}
}
