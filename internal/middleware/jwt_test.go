package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dernsupport/service-desk/internal/utils"
)

const testSecret = "test-secret"

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, mw(okHandler)(c))
	return rec
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec := doRequest(t, JWTAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthInvalidToken(t *testing.T) {
	rec := doRequest(t, JWTAuth(testSecret), "Bearer not-a-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 1, "a@b.c", "user", "individual", 1)
	require.NoError(t, err)
	rec := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthStoresClaims(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "a@b.c", "master", "individual", 1)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotRole any
	var gotSub any
	inner := func(c echo.Context) error {
		gotRole = c.Get("role")
		gotSub = c.Get("user_id")
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, JWTAuth(testSecret)(inner)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "master", gotRole)
	// JSON round-trips numeric claims as float64.
	assert.Equal(t, float64(42), gotSub)
}

func TestJWTOptionalAnonymousPassesThrough(t *testing.T) {
	rec := doRequest(t, JWTOptional(testSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTOptionalRejectsInvalidToken(t *testing.T) {
	rec := doRequest(t, JWTOptional(testSecret), "Bearer garbage")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role any) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		_ = RequireRole("manager", "master")(okHandler)(c)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run("manager"))
	assert.Equal(t, http.StatusOK, run("master"))
	assert.Equal(t, http.StatusForbidden, run("user"))
	assert.Equal(t, http.StatusForbidden, run(nil))
	assert.Equal(t, http.StatusForbidden, run(123))
}
