package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"github.com/sweetlabs/sweetshop/internal/webserver"
)

type settingPayload struct {
	Category string `json:"category" validate:"required,oneof=inventory shop"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Value    string `json:"value" validate:"required,max=500"`
}

func registerSettingsRoutes() {
	webserver.ApiGET("/admin/settings/:category", getSettings, webserver.RequireAdmin)
	webserver.ApiPUT("/admin/settings", putSetting, webserver.RequireAdmin)
}

func getSettings(c echo.Context) error {
	category := strings.TrimSpace(c.Param("category"))
	values := GetAppContext(c).ConfigMgr().GetCategory(category)
	if len(values) == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Unknown settings category", nil)
	}
	return ok(c, values)
}

func putSetting(c echo.Context) error {
	var payload settingPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse setting", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	// Numeric settings must parse before they are stored.
	if payload.Name == "low_stock_threshold" && cast.ToInt64(payload.Value) <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_VALUE", "Threshold must be a positive integer", nil)
	}

	mgr := GetAppContext(c).ConfigMgr()
	if err := mgr.SaveSetting(payload.Category, payload.Name, payload.Value); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save setting", err.Error())
	}

	logOp(c, "update_setting", payload.Category+"."+payload.Name)
	return ok(c, mgr.GetCategory(payload.Category))
}
