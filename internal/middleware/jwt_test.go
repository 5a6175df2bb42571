package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsu-hwang/event-ticket-reservation/internal/utils"
)

const testSecret = "unit-test-secret"

func runWithAuth(t *testing.T, header string, mw echo.MiddlewareFunc) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	h := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, reached
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "MEMBER", 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUser interface{}
	var gotRole interface{}
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		gotUser = c.Get("user_id")
		gotRole = c.Get("role")
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(42), gotUser, "numeric claims decode as float64")
	assert.Equal(t, "MEMBER", gotRole)
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	mw := JWTAuth(testSecret)

	rec, reached := runWithAuth(t, "", mw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	rec, reached = runWithAuth(t, "Bearer garbage", mw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)

	// Token signed with a different secret must be rejected.
	tok, err := utils.NewAccessToken("other-secret", 1, "MEMBER", 5)
	require.NoError(t, err)
	rec, reached = runWithAuth(t, "Bearer "+tok.Token, mw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestRequireRoleEnforcesAllowedSet(t *testing.T) {
	e := echo.New()
	run := func(role interface{}) (*httptest.ResponseRecorder, bool) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		reached := false
		h := RequireRole("MEMBER", "GUEST")(func(c echo.Context) error {
			reached = true
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, h(c))
		return rec, reached
	}

	rec, reached := run("MEMBER")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)

	rec, reached = run("GUEST")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)

	rec, reached = run("ADMIN")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)

	rec, reached = run(nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}
