package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetlabs/sweetshop/pkg/common"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("secret", time.Hour, 42, "a@b.com", common.RoleCustomer)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, common.RoleCustomer, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken("secret", time.Hour, 42, "a@b.com", common.RoleCustomer)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := IssueToken("secret", -time.Minute, 42, "a@b.com", common.RoleCustomer)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	handler := RequireAdmin(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	newCtx := func(role string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if role != "" {
			c.Set("user", &jwt.Token{Claims: &ShopClaims{UserID: 1, Role: role}})
		}
		return c
	}

	assert.NoError(t, handler(newCtx(common.RoleAdmin)))

	err := handler(newCtx(common.RoleCustomer))
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	err = handler(newCtx(""))
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}
