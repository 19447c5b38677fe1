// Package auth verifies bearer tokens and tracks the signed-in user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/piratesdroid/travel-guide/internal/watch"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")
)

// User is the signed-in account.
type User struct {
	ID    string `json:"uid"`
	Email string `json:"email,omitempty"`
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier issues and checks HS256 tokens whose subject is the user ID.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a verifier.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for u valid for ttl.
func (v *Verifier) Issue(u User, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(v.secret)
}

// Verify parses raw and returns its user.
func (v *Verifier) Verify(raw string) (*User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return &User{ID: c.Subject, Email: c.Email}, nil
}

// FromRequest verifies the Authorization header of r.
func (v *Verifier) FromRequest(r *http.Request) (*User, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	return v.Verify(strings.TrimSpace(token))
}

type ctxKey struct{}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the user stored by WithUser.
func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}

// Session is the observable sign-in state of one client.
type Session struct {
	verifier *Verifier
	current  *watch.Value[*User]
}

// NewSession starts signed out.
func NewSession(v *Verifier) *Session {
	return &Session{verifier: v, current: watch.NewValue[*User](nil)}
}

// SignIn verifies token and publishes its user.
func (s *Session) SignIn(token string) (*User, error) {
	u, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	s.current.Set(u)
	return u, nil
}

// SignOut publishes a nil user.
func (s *Session) SignOut() {
	s.current.Set(nil)
}

// State is the user observable: nil means signed out.
func (s *Session) State() *watch.Value[*User] {
	return s.current
}
