package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sweetlabs/sweetshop/internal/app"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/internal/ledger"
	"github.com/sweetlabs/sweetshop/internal/webserver"
	"gorm.io/gorm"
)

// InitRouter registers every API route group on the web server.
func InitRouter() {
	registerAuthRoutes()
	registerSweetRoutes()
	registerInventoryRoutes()
	registerUserRoutes()
	registerSchedulerRoutes()
	registerDashboardRoutes()
	registerSettingsRoutes()
}

// GetAppContext returns the application container injected by the web server.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB()
}

func GetLedger(c echo.Context) *ledger.Service {
	return GetAppContext(c).Ledger()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rows,
		"total":   total,
		"page":    page,
		"perPage": pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page, pageSize = 1, 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	} else if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// parseDateRange reads optional from/to query params in any common date
// format. A zero time means the bound is open.
func parseDateRange(c echo.Context) (from, to time.Time, err error) {
	if v := c.QueryParam("from"); v != "" {
		from, err = dateparse.ParseAny(v)
		if err != nil {
			return from, to, err
		}
	}
	if v := c.QueryParam("to"); v != "" {
		to, err = dateparse.ParseAny(v)
		if err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

// isDuplicateKey reports whether err is a unique constraint violation
// surfaced by gorm's error translation. Duplicate checks in handlers are
// count-then-create, so a concurrent insert can still land here.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// handleValidationError renders go-playground validation failures as a
// field-keyed details map.
func handleValidationError(c echo.Context, err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := make(map[string]string, len(errs))
		for _, fe := range errs {
			details[fe.Field()] = fe.Tag()
		}
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", details)
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", err.Error())
}

// failLedger maps ledger errors onto the API error envelope.
func failLedger(c echo.Context, err error) error {
	switch {
	case err == ledger.ErrSweetNotFound:
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Sweet not found or unavailable", nil)
	case err == ledger.ErrInvalidQuantity:
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be a positive integer", nil)
	case ledger.IsInsufficientStock(err):
		return fail(c, http.StatusBadRequest, "INSUFFICIENT_STOCK", err.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Inventory operation failed", err.Error())
	}
}

// logOp records an admin action in the operation log table.
func logOp(c echo.Context, action, desc string) {
	user := webserver.CurrentUser(c)
	opName := "anonymous"
	if user != nil {
		opName = user.Email
	}
	GetDB(c).Create(&domain.SysOpLog{
		OpName:   opName,
		OpIp:     c.RealIP(),
		OpAction: action,
		OpDesc:   desc,
		OpTime:   time.Now(),
	})
}
