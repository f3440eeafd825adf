package webserver

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sweetlabs/sweetshop/pkg/common"
)

// ShopClaims is the JWT payload carried by authenticated requests.
type ShopClaims struct {
	UserID int64  `json:"uid,string"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func newShopClaims(c echo.Context) jwt.Claims {
	return new(ShopClaims)
}

// IssueToken signs a token for the given user identity.
func IssueToken(secret string, expire time.Duration, userID int64, email, role string) (string, error) {
	claims := ShopClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies a signed token and returns its claims.
func ParseToken(secret, tokenString string) (*ShopClaims, error) {
	claims := new(ShopClaims)
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// CurrentUser extracts the verified claims from the echo context. It
// returns nil on public routes.
func CurrentUser(c echo.Context) *ShopClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*ShopClaims)
	if !ok {
		return nil
	}
	return claims
}

// RequireAdmin rejects requests whose token does not carry the admin role.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || user.Role != common.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}
