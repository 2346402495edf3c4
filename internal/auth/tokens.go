package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const rolesClaim = "roles"

// Role names carried in staff access tokens.
const (
	RoleCashier = "cashier"
	RoleManager = "manager"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the subset of an access token the API relies on.
type Claims struct {
	StaffID string
	Roles   []string
}

// Tokens signs and verifies HS256 staff access tokens. The POS login flow lives
// outside this service; it shares the secret and issuer.
type Tokens struct {
	Secret    []byte
	Validator TokenValidator
	Now       func() time.Time
}

// NewTokens builds a Tokens helper for secret and issuer.
func NewTokens(secret, issuer string) Tokens {
	return Tokens{
		Secret: []byte(secret),
		Validator: TokenValidator{
			Issuer:    issuer,
			ClockSkew: 30 * time.Second,
			Algorithm: jwa.HS256,
		},
	}
}

func (t Tokens) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Sign issues a token for staffID valid for ttl.
func (t Tokens) Sign(staffID string, roles []string, ttl time.Duration) (string, error) {
	now := t.now()
	builder := jwt.NewBuilder().
		Subject(staffID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl)).
		Claim(rolesClaim, roles)
	if t.Validator.Issuer != "" {
		builder = builder.Issuer(t.Validator.Issuer)
	}
	if t.Validator.Audience != "" {
		builder = builder.Audience([]string{t.Validator.Audience})
	}
	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}

// Parse verifies the signature of raw and validates its claims.
func (t Tokens) Parse(raw string) (Claims, error) {
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, t.Secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := t.Validator.Validate(tok, jwa.HS256, t.now()); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok.Subject() == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Claims{StaffID: tok.Subject(), Roles: rolesOf(tok)}, nil
}

func rolesOf(tok jwt.Token) []string {
	raw, ok := tok.Get(rolesClaim)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
