package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http/httptest"
	"testing"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(testutil.NewDB(t), NewTokenIssuer(testSecret, 15*time.Minute), time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)
	tok, err := issuer.Issue(&models.User{ID: 3, Email: "ada@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	p, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(3), p.UserID)
	assert.Equal(t, "ada@example.com", p.Subject)
	assert.Equal(t, []models.Role{models.RoleAdmin}, p.Roles)

	other := NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Minute)
	_, err = other.Verify(tok)
	assert.Error(t, err)
}

func TestExpiredAccessToken(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, err := issuer.Issue(&models.User{ID: 1, Email: "a@b.co", Role: models.RolePlanner})
	require.NoError(t, err)

	_, err = NewTokenIssuer(testSecret, time.Minute).Verify(tok)
	assert.Error(t, err)
}

func TestOIDCVerifierRoles(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := &OIDCVerifier{
		Keyfunc:            func(*jwt.Token) (any, error) { return &key.PublicKey, nil },
		Issuer:             "https://idp.example.com/realms/sc",
		ResourceID:         "supplychain-api",
		PrincipalAttribute: "preferred_username",
	}

	claims := jwt.MapClaims{
		"iss":                "https://idp.example.com/realms/sc",
		"sub":                "f3a1",
		"preferred_username": "planner.jane",
		"exp":                time.Now().Add(time.Minute).Unix(),
		"realm_access":       map[string]any{"roles": []any{"offline_access", "planner"}},
		"resource_access": map[string]any{
			"supplychain-api": map[string]any{"roles": []any{"ROLE_ADMIN", "PLANNER"}},
			"other-client":    map[string]any{"roles": []any{"SALES_MANAGER"}},
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	p, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "planner.jane", p.Subject)
	assert.Equal(t, []models.Role{models.RolePlanner, models.RoleAdmin}, p.Roles)
	assert.Zero(t, p.UserID)

	claims["iss"] = "https://evil.example.com"
	bad, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	_, err = v.Verify(bad)
	assert.Error(t, err)

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = v.Verify(hs)
	assert.Error(t, err)
}

func TestMiddlewareStatuses(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)
	app := fiber.New()
	app.Get("/secure", JWTMiddleware(issuer), RequireRole(models.RoleAdmin, models.RoleSalesManager), func(c *fiber.Ctx) error {
		return c.SendString(Actor(c))
	})

	do := func(header string) int {
		req := httptest.NewRequest("GET", "/secure", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	sales, err := issuer.Issue(&models.User{ID: 1, Email: "s@x.io", Role: models.RoleSalesManager})
	require.NoError(t, err)
	planner, err := issuer.Issue(&models.User{ID: 2, Email: "p@x.io", Role: models.RolePlanner})
	require.NoError(t, err)

	assert.Equal(t, 401, do(""))
	assert.Equal(t, 401, do("Token abc"))
	assert.Equal(t, 401, do("Bearer not-a-jwt"))
	assert.Equal(t, 403, do("Bearer "+planner))
	assert.Equal(t, 200, do("Bearer "+sales))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	in := RegisterInput{FirstName: "Ada", LastName: "Lovelace", Email: "Ada@Example.com", Password: "secret1"}
	pair, err := svc.Register(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	var user models.User
	require.NoError(t, svc.DB.Where("email = ?", "ada@example.com").First(&user).Error)
	assert.Equal(t, DefaultRole, user.Role)

	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	cases := map[string]RegisterInput{
		"missing names": {Email: "a@b.co", Password: "secret1"},
		"bad email":     {FirstName: "A", LastName: "B", Email: "nope", Password: "secret1"},
		"short pass":    {FirstName: "A", LastName: "B", Email: "a@b.co", Password: "1234"},
		"unknown role":  {FirstName: "A", LastName: "B", Email: "a@b.co", Password: "secret1", Role: "ROOT"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestAuthenticateRotatesRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "a@b.co", "wrong-pass")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = svc.Authenticate(ctx, "missing@b.co", "secret1")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	second, err := svc.Authenticate(ctx, " A@B.co ", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	var count int64
	require.NoError(t, svc.DB.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestRefreshRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	pair, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "a@b.co", Password: "secret1", Role: models.RoleAdmin})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)

	p, err := svc.Tokens.Verify(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", p.Subject)
	assert.Equal(t, []models.Role{models.RoleAdmin}, p.Roles)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	var count int64
	require.NoError(t, svc.DB.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.Zero(t, count)
}
