package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"github.com/sweetlabs/sweetshop/internal/ledger"
	"github.com/sweetlabs/sweetshop/internal/webserver"
)

type stockPayload struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type purchaseCSVRow struct {
	ID         int64   `csv:"id"`
	Sweet      string  `csv:"sweet"`
	Category   string  `csv:"category"`
	Quantity   int     `csv:"quantity"`
	TotalPrice float64 `csv:"total_price"`
	CreatedAt  string  `csv:"created_at"`
}

func registerInventoryRoutes() {
	webserver.ApiPOST("/sweets/:id/purchase", purchaseSweet)
	webserver.ApiPOST("/sweets/:id/restock", restockSweet, webserver.RequireAdmin)
	webserver.ApiGET("/inventory/purchases", listMyPurchases)
	webserver.ApiGET("/inventory/purchases/export", exportMyPurchases)
	webserver.ApiGET("/inventory/sweets/:id/restocks", listSweetRestocks, webserver.RequireAdmin)
	webserver.ApiGET("/inventory/low-stock", listLowStock, webserver.RequireAdmin)
}

func purchaseSweet(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token", nil)
	}

	var payload stockPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse purchase", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	sweet, err := GetLedger(c).Purchase(c.Request().Context(), id, claims.UserID, payload.Quantity)
	if err != nil {
		return failLedger(c, err)
	}
	return ok(c, sweet)
}

func restockSweet(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}
	claims := webserver.CurrentUser(c)

	var payload stockPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse restock", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	sweet, err := GetLedger(c).Restock(c.Request().Context(), id, claims.UserID, payload.Quantity)
	if err != nil {
		return failLedger(c, err)
	}

	logOp(c, "restock_sweet", fmt.Sprintf("sweet=%d qty=%d", id, payload.Quantity))
	return ok(c, sweet)
}

func listMyPurchases(c echo.Context) error {
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token", nil)
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date range", err.Error())
	}

	entries, err := GetLedger(c).PurchaseHistory(c.Request().Context(), claims.UserID, from, to)
	if err != nil {
		return failLedger(c, err)
	}
	return ok(c, entries)
}

// exportMyPurchases streams the caller's purchase history as CSV.
func exportMyPurchases(c echo.Context) error {
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token", nil)
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date range", err.Error())
	}

	entries, err := GetLedger(c).PurchaseHistory(c.Request().Context(), claims.UserID, from, to)
	if err != nil {
		return failLedger(c, err)
	}

	rows := make([]purchaseCSVRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, purchaseCSVRow{
			ID:         e.ID,
			Sweet:      e.Sweet.Name,
			Category:   e.Sweet.Category,
			Quantity:   e.Quantity,
			TotalPrice: e.TotalPrice,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="purchases.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return gocsv.Marshal(&rows, c.Response())
}

func listSweetRestocks(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date range", err.Error())
	}

	entries, err := GetLedger(c).RestockHistory(c.Request().Context(), id, from, to)
	if err != nil {
		return failLedger(c, err)
	}
	return ok(c, entries)
}

func listLowStock(c echo.Context) error {
	threshold := ledger.DefaultLowStockThreshold
	if v := c.QueryParam("threshold"); v != "" {
		threshold = cast.ToInt(v)
		if threshold <= 0 {
			return fail(c, http.StatusBadRequest, "INVALID_THRESHOLD", "Threshold must be a positive integer", nil)
		}
	} else if configured := GetAppContext(c).ConfigMgr().InventorySettings().LowStockThreshold; configured > 0 {
		threshold = int(configured)
	}

	sweets, err := GetLedger(c).LowStock(c.Request().Context(), threshold)
	if err != nil {
		return failLedger(c, err)
	}
	return ok(c, map[string]interface{}{
		"threshold": threshold,
		"sweets":    sweets,
	})
}
