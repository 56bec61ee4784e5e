package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken("u-1", "Budi", []domain.Role{domain.RoleTeknisi, domain.RolePegawai})
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	p := claims.Principal()
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, "Budi", p.DisplayName())
	assert.True(t, p.HasRole(domain.RoleTeknisi))
	assert.False(t, p.HasRole(domain.RoleSuperAdmin))
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenManager("a", 5).GenerateToken("u-1", "", nil)
	require.NoError(t, err)
	_, err = NewTokenManager("b", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestClaimsAcceptStringEncodedRoles(t *testing.T) {
	secret := []byte("secret")
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u-9",
		"roles": `["admin_layanan","teknisi"]`,
	})
	signed, err := raw.SignedString(secret)
	require.NoError(t, err)

	claims, err := NewTokenManager("secret", 5).ParseToken(signed)
	require.NoError(t, err)
	assert.True(t, claims.Principal().Roles.HasAll(domain.RoleAdminLayanan, domain.RoleTeknisi))
}

func newTestApp(tm *TokenManager, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/", NewAuthMiddleware(tm).Handle, guard, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.UserID)
	})
	return app
}

func TestMiddlewareAndRoleGuard(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	admin, _, _ := tm.GenerateToken("admin", "", []domain.Role{domain.RoleAdminLayanan})
	pegawai, _, _ := tm.GenerateToken("emp", "", []domain.Role{domain.RolePegawai})
	app := newTestApp(tm, RequireRoles(domain.RoleAdminLayanan, domain.RoleSuperAdmin))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + pegawai, http.StatusForbidden},
		{"allowed", "Bearer " + admin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
