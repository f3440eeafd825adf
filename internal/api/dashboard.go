package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/internal/ledger"
	"github.com/sweetlabs/sweetshop/internal/webserver"
)

type dashboardStats struct {
	Sweets        int64   `json:"sweets"`
	Users         int64   `json:"users"`
	Purchases     int64   `json:"purchases"`
	Restocks      int64   `json:"restocks"`
	LowStockCount int     `json:"lowStockCount"`
	Revenue       revenue `json:"revenue"`
}

type revenue struct {
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

func registerDashboardRoutes() {
	webserver.ApiGET("/admin/dashboard", getDashboard, webserver.RequireAdmin)
}

// getDashboard aggregates shop totals plus revenue figures over the last
// 30 days of purchases.
func getDashboard(c echo.Context) error {
	db := GetDB(c)

	var out dashboardStats
	db.Model(&domain.Sweet{}).Where("is_active = ?", true).Count(&out.Sweets)
	db.Model(&domain.User{}).Count(&out.Users)
	db.Model(&domain.Purchase{}).Count(&out.Purchases)
	db.Model(&domain.Restock{}).Count(&out.Restocks)

	threshold := int(GetAppContext(c).ConfigMgr().InventorySettings().LowStockThreshold)
	if threshold <= 0 {
		threshold = ledger.DefaultLowStockThreshold
	}
	low, err := GetLedger(c).LowStock(c.Request().Context(), threshold)
	if err != nil {
		return failLedger(c, err)
	}
	out.LowStockCount = len(low)

	since := time.Now().AddDate(0, 0, -30)
	var totals []float64
	if err := db.Model(&domain.Purchase{}).
		Where("created_at >= ?", since).
		Pluck("total_price", &totals).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load purchases", err.Error())
	}

	if len(totals) > 0 {
		data := stats.LoadRawData(totals)
		out.Revenue.Total, _ = stats.Sum(data)
		out.Revenue.Mean, _ = stats.Mean(data)
		out.Revenue.Median, _ = stats.Median(data)
		out.Revenue.P95, _ = stats.Percentile(data, 95)
	}

	return ok(c, out)
}
