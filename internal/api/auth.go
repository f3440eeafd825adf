package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/internal/webserver"
	"github.com/sweetlabs/sweetshop/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type registerPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResult struct {
	Token string      `json:"token"`
	User  userProfile `json:"user"`
}

type userProfile struct {
	ID    int64  `json:"id,string"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func registerAuthRoutes() {
	webserver.PubPOST("/auth/register", registerUser)
	webserver.PubPOST("/auth/login", loginUser)
	webserver.ApiGET("/auth/profile", getProfile)
	webserver.ApiGET("/auth/verify", verifyToken)
}

func registerUser(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse registration", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid registration payload", err.Error())
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))

	appCtx := GetAppContext(c)

	var count int64
	GetDB(c).Model(&domain.User{}).Where("email = ?", payload.Email).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "EMAIL_TAKEN", "Email already registered", nil)
	}

	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to hash password", nil)
	}

	role := common.RoleCustomer
	if payload.Email == strings.ToLower(appCtx.Config().Admin.Email) {
		role = common.RoleAdmin
	}

	user := domain.User{
		ID:        common.UUIDint64(),
		Email:     payload.Email,
		Password:  hashed,
		Name:      strings.TrimSpace(payload.Name),
		Role:      role,
		Status:    common.ENABLED,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return fail(c, http.StatusConflict, "EMAIL_TAKEN", "Email already registered", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", err.Error())
	}

	zap.L().Info("user registered", zap.String("email", user.Email), zap.String("role", user.Role))
	return issueAuthResult(c, http.StatusCreated, &user)
}

func loginUser(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid login payload", err.Error())
	}

	var user domain.User
	err := GetDB(c).Where("email = ?", strings.ToLower(strings.TrimSpace(payload.Email))).First(&user).Error
	if err != nil || !common.CheckPassword(user.Password, payload.Password) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	if user.Status != common.ENABLED {
		return fail(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled", nil)
	}

	GetDB(c).Model(&domain.User{}).Where("id = ?", user.ID).
		Update("last_login", time.Now())

	return issueAuthResult(c, http.StatusOK, &user)
}

func issueAuthResult(c echo.Context, status int, user *domain.User) error {
	cfg := GetAppContext(c).Config().Web
	token, err := webserver.IssueToken(cfg.JwtSecret, time.Duration(cfg.JwtExpire)*time.Hour,
		user.ID, user.Email, user.Role)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign token", nil)
	}
	return c.JSON(status, map[string]interface{}{
		"success": true,
		"data": authResult{
			Token: token,
			User:  userProfile{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role},
		},
	})
}

func getProfile(c echo.Context) error {
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token", nil)
	}
	var user domain.User
	if err := GetDB(c).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user", err.Error())
	}
	return ok(c, userProfile{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role})
}

func verifyToken(c echo.Context) error {
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token", nil)
	}
	return ok(c, map[string]interface{}{
		"valid": true,
		"user": userProfile{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
		},
	})
}
