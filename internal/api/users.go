package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/internal/webserver"
	"github.com/sweetlabs/sweetshop/pkg/common"
)

type userStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=enabled disabled"`
}

func registerUserRoutes() {
	webserver.ApiGET("/admin/users", listUsers, webserver.RequireAdmin)
	webserver.ApiPUT("/admin/users/:id/status", updateUserStatus, webserver.RequireAdmin)
}

func listUsers(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.User{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if role := strings.TrimSpace(c.QueryParam("role")); role != "" {
		db = db.Where("role = ?", role)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}

	var rows []domain.User
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func updateUserStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}

	var payload userStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status payload", err.Error())
	}

	claims := webserver.CurrentUser(c)
	if claims != nil && claims.UserID == id {
		return fail(c, http.StatusBadRequest, "SELF_UPDATE", "Cannot change your own account status", nil)
	}

	status := common.ENABLED
	if payload.Status == "disabled" {
		status = common.DISABLED
	}

	result := GetDB(c).Model(&domain.User{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user", result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}

	logOp(c, "update_user_status", c.Param("id")+" -> "+payload.Status)
	return ok(c, map[string]interface{}{"updated": true})
}
