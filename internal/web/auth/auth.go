// Package auth populates procedure contexts with caller identity parsed
// from bearer tokens and provides the guard predicates built on it. This is
// the access-control collaborator for the procedure layer: the engine only
// ever sees the uniform guard contract.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dphaener/relay/guard"
)

// Context keys under which identity data lands in the procedure context
const (
	// ClaimsKey holds the *Claims for the authenticated caller
	ClaimsKey = "auth.claims"
	// SubjectKey holds the caller's subject identifier
	SubjectKey = "auth.subject"
	// RolesKey holds the caller's role names
	RolesKey = "auth.roles"
)

// Claims is the token payload the procedure layer cares about
type Claims struct {
	Subject string   `json:"sub"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// ParseToken validates a signed token and extracts its claims
func ParseToken(secret []byte, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		claims.Subject = claims.RegisteredClaims.Subject
	}
	return claims, nil
}

// ContextValues converts claims into the extension map merged into the
// procedure base context. A nil claims value produces an empty map, leaving
// the caller anonymous.
func ContextValues(claims *Claims) map[string]any {
	if claims == nil {
		return map[string]any{}
	}
	return map[string]any{
		ClaimsKey:  claims,
		SubjectKey: claims.Subject,
		RolesKey:   claims.Roles,
	}
}

// FromRequest parses the Authorization header of an HTTP request. A missing
// header yields (nil, nil): the caller is anonymous, not erroneous.
func FromRequest(secret []byte, r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("authorization header must use the Bearer scheme")
	}
	return ParseToken(secret, token)
}

// ClaimsFrom extracts the claims from a guard context, if present
func ClaimsFrom(ctx guard.Context) *Claims {
	claims, _ := ctx.Value(ClaimsKey).(*Claims)
	return claims
}

// Authenticated is a guard that passes when the caller carries valid claims
func Authenticated() *guard.Guard {
	return guard.New("authenticated",
		func(ctx guard.Context) (bool, error) {
			return ClaimsFrom(ctx) != nil, nil
		},
		guard.WithStatus(http.StatusUnauthorized),
		guard.WithMessage("Authentication required"),
	)
}

// HasRole is a guard that passes when the caller holds the given role. The
// guard name embeds the role so failure reports identify the exact check,
// e.g. "hasRole:admin".
func HasRole(role string) *guard.Guard {
	return guard.New("hasRole:"+role, func(ctx guard.Context) (bool, error) {
		claims := ClaimsFrom(ctx)
		if claims == nil {
			return false, nil
		}
		for _, r := range claims.Roles {
			if r == role {
				return true, nil
			}
		}
		return false, nil
	})
}

// HasAnyRole passes when the caller holds at least one of the given roles
func HasAnyRole(roles ...string) *guard.Guard {
	members := make([]*guard.Guard, len(roles))
	for i, role := range roles {
		members[i] = HasRole(role)
	}
	return guard.AnyOf(members...)
}
