// Package auth resolves bearer credentials into principals and enforces
// the admin role required for privileged operations. The gate knows
// nothing about which operation invoked it; callers compose it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jp310194/wwfc-webapp/internal/model"
)

var (
	// ErrUnauthenticated means the credential was missing, invalid or expired.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden means the principal is authenticated but not an admin.
	ErrForbidden = errors.New("forbidden (admin only)")
	// ErrRoleLookup means the role store itself failed, distinct from a
	// principal simply having no role row.
	ErrRoleLookup = errors.New("role lookup failed")
)

// Principal is an authenticated identity resolved from a credential.
type Principal struct {
	ID   string
	Name string
}

// TokenResolver exchanges a bearer token for a principal. This is the
// contract of the external identity provider.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// RoleStore looks up the stored role for a principal. An empty role with
// a nil error means the principal is a standard member.
type RoleStore interface {
	GetRole(ctx context.Context, profileID string) (string, error)
}

// BearerToken extracts the token from an Authorization header value.
// Returns the empty string when the header carries no bearer credential.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return header[len(prefix):]
}

// JWTResolver validates HMAC-signed tokens issued by the identity
// provider. The token subject is the profile ID.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver creates a resolver validating against the given secret.
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve parses and validates the token, returning the principal it
// identifies.
func (r *JWTResolver) Resolve(_ context.Context, token string) (*Principal, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.Subject == "" {
		return nil, ErrUnauthenticated
	}
	return &Principal{ID: claims.Subject}, nil
}

// Gate is the reusable capability check composed into any operation that
// needs an authenticated caller or the admin role.
type Gate struct {
	resolver TokenResolver
	roles    RoleStore
}

// NewGate creates a gate from a token resolver and a role store.
func NewGate(resolver TokenResolver, roles RoleStore) *Gate {
	return &Gate{resolver: resolver, roles: roles}
}

// Resolve authenticates the bearer token and returns its principal.
func (g *Gate) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	principal, err := g.resolver.Resolve(ctx, token)
	if err != nil || principal == nil {
		return nil, ErrUnauthenticated
	}
	return principal, nil
}

// RequireAdmin authenticates the bearer token and enforces the admin
// role. The role is read from the store on every check, so demotions take
// effect without reissuing credentials.
func (g *Gate) RequireAdmin(ctx context.Context, token string) (*Principal, error) {
	principal, err := g.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	role, err := g.roles.GetRole(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoleLookup, err)
	}
	if role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return principal, nil
}
