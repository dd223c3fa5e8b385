package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"supplychain-backend/internal/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// OIDCVerifier accepts tokens signed by an external identity provider and
// reads Keycloak-style role claims.
type OIDCVerifier struct {
	Keyfunc            jwt.Keyfunc
	Issuer             string
	ResourceID         string
	PrincipalAttribute string
}

// NewJWKSVerifier fetches and keeps refreshing the provider's JWKS until ctx ends.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer, resourceID, principalAttr string) (*OIDCVerifier, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks from %s: %w", jwksURL, err)
	}
	return &OIDCVerifier{
		Keyfunc:            k.Keyfunc,
		Issuer:             issuer,
		ResourceID:         resourceID,
		PrincipalAttribute: principalAttr,
	}, nil
}

func (v *OIDCVerifier) Verify(tokenStr string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "PS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.Keyfunc, opts...)
	if err != nil {
		return Principal{}, err
	}
	if !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	attr := v.PrincipalAttribute
	if attr == "" {
		attr = "sub"
	}
	subject, _ := claims[attr].(string)
	if subject == "" {
		subject, _ = claims["sub"].(string)
	}

	return Principal{
		Subject: subject,
		Roles:   extractRoles(claims, v.ResourceID),
	}, nil
}

// extractRoles merges realm_access.roles with resource_access[resourceID].roles.
func extractRoles(claims jwt.MapClaims, resourceID string) []models.Role {
	var raw []any
	if realm, ok := claims["realm_access"].(map[string]any); ok {
		if r, ok := realm["roles"].([]any); ok {
			raw = append(raw, r...)
		}
	}
	if resourceID != "" {
		if resources, ok := claims["resource_access"].(map[string]any); ok {
			if client, ok := resources[resourceID].(map[string]any); ok {
				if r, ok := client["roles"].([]any); ok {
					raw = append(raw, r...)
				}
			}
		}
	}

	seen := make(map[models.Role]bool)
	roles := make([]models.Role, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		role := models.Role(strings.TrimPrefix(strings.ToUpper(s), "ROLE_"))
		if !role.Valid() || seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}
	return roles
}
