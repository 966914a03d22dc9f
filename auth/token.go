// Package auth issues and validates the router's bearer tokens and runs the
// Google OAuth login that mints them.
//
// Tokens are HS256 JWTs carrying the user's email as subject. Validated
// claims are placed in the request context by Middleware and read back with
// ClaimsFromContext.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = 30 * time.Minute

// DefaultIssuer is the iss claim of issued tokens.
const DefaultIssuer = "agentrouter"

// ErrInvalidToken is returned for tokens that fail parsing, signature or claim validation.
var ErrInvalidToken = errors.New("could not validate credentials")

// Claims are the validated claims of a bearer token.
type Claims struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenIssuerOptions configures a TokenIssuer.
type TokenIssuerOptions struct {
	TTL    time.Duration
	Issuer string
	Clock  func() time.Time
}

// TokenIssuer signs and validates HS256 tokens with a shared secret.
type TokenIssuer struct {
	key  []byte
	opts TokenIssuerOptions
}

// NewTokenIssuer creates an issuer for secret, which must not be empty.
func NewTokenIssuer(secret string, optFns ...func(o *TokenIssuerOptions)) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	opts := TokenIssuerOptions{
		TTL:    DefaultTokenTTL,
		Issuer: DefaultIssuer,
		Clock:  time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &TokenIssuer{key: []byte(secret), opts: opts}, nil
}

// Issue signs a token for subject. A zero ttl uses the configured TTL.
func (i *TokenIssuer) Issue(subject, email, name string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.opts.TTL
	}

	now := i.opts.Clock()

	b := jwt.NewBuilder().
		Issuer(i.opts.Issuer).
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(ttl))
	if email != "" {
		b = b.Claim("email", email)
	}
	if name != "" {
		b = b.Claim("name", name)
	}

	tok, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

// Validate checks signature, issuer and expiry and returns the claims.
func (i *TokenIssuer) Validate(token string) (*Claims, error) {
	tok, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, i.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(i.opts.Issuer),
		jwt.WithClock(jwt.ClockFunc(i.opts.Clock)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if tok.Subject() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := &Claims{
		Subject:   tok.Subject(),
		IssuedAt:  tok.IssuedAt(),
		ExpiresAt: tok.Expiration(),
	}
	if v, ok := tok.Get("email"); ok {
		claims.Email, _ = v.(string)
	}
	if v, ok := tok.Get("name"); ok {
		claims.Name, _ = v.(string)
	}
	if claims.Email == "" {
		claims.Email = claims.Subject
	}

	return claims, nil
}

type contextKey struct{}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Middleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok && c != nil
}
