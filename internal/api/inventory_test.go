package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetlabs/sweetshop/config"
	"github.com/sweetlabs/sweetshop/internal/app"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/internal/ledger"
	"github.com/sweetlabs/sweetshop/internal/webserver"
	"github.com/sweetlabs/sweetshop/pkg/common"
	"gorm.io/gorm"
)

// testAppCtx satisfies app.AppContext with a memory-backed ledger and no
// database. Handlers under test must not touch the DB.
type testAppCtx struct {
	cfg *config.AppConfig
	svc *ledger.Service
}

func (t *testAppCtx) DB() *gorm.DB                                      { return nil }
func (t *testAppCtx) Config() *config.AppConfig                         { return t.cfg }
func (t *testAppCtx) GetSettingsStringValue(category, key string) string { return "" }
func (t *testAppCtx) GetSettingsInt64Value(category, key string) int64   { return 0 }
func (t *testAppCtx) GetSettingsBoolValue(category, key string) bool     { return false }
func (t *testAppCtx) ConfigMgr() *app.ConfigManager                      { return nil }
func (t *testAppCtx) Scheduler() *cron.Cron                              { return nil }
func (t *testAppCtx) Ledger() *ledger.Service                            { return t.svc }
func (t *testAppCtx) Bus() EventBus.Bus                                  { return nil }
func (t *testAppCtx) MigrateDB(track bool) error                         { return nil }
func (t *testAppCtx) InitDb()                                            {}
func (t *testAppCtx) DropAll()                                           {}
func (t *testAppCtx) RunSchedulerNow(id int64) error                     { return nil }

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func newTestContext(t *testing.T, repo *ledger.MemoryRepository, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(webserver.AppContextKey, &testAppCtx{
		cfg: config.DefaultAppConfig,
		svc: ledger.NewService(repo, nil),
	})
	return c, rec
}

func asUser(c echo.Context, userID int64, role string) {
	c.Set("user", &jwt.Token{Claims: &webserver.ShopClaims{
		UserID: userID,
		Email:  "tester@sweetshop.com",
		Role:   role,
	}})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPurchaseEndpoint(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Name: "Fudge", Price: 2.5, Quantity: 10, IsActive: true})

	c, rec := newTestContext(t, repo, http.MethodPost, `{"quantity":4}`)
	c.SetPath("/sweets/:id/purchase")
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 7, common.RoleCustomer)

	require.NoError(t, purchaseSweet(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(6), data["quantity"])

	require.Len(t, repo.Purchases(), 1)
	assert.InDelta(t, 10.0, repo.Purchases()[0].TotalPrice, 1e-9)
}

func TestPurchaseEndpointInsufficientStock(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Name: "Fudge", Price: 2.5, Quantity: 3, IsActive: true})

	c, rec := newTestContext(t, repo, http.MethodPost, `{"quantity":5}`)
	c.SetPath("/sweets/:id/purchase")
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 7, common.RoleCustomer)

	require.NoError(t, purchaseSweet(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_STOCK", errObj["code"])
	assert.Empty(t, repo.Purchases())
}

func TestPurchaseEndpointRejectsNonPositiveQuantity(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Name: "Fudge", Price: 2.5, Quantity: 10, IsActive: true})

	for _, body := range []string{`{"quantity":0}`, `{"quantity":-2}`} {
		c, rec := newTestContext(t, repo, http.MethodPost, body)
		c.SetPath("/sweets/:id/purchase")
		c.SetParamNames("id")
		c.SetParamValues("1")
		asUser(c, 7, common.RoleCustomer)

		require.NoError(t, purchaseSweet(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)

		out := decodeBody(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", out["error"].(map[string]interface{})["code"])
	}
	assert.Empty(t, repo.Purchases())
}

func TestPurchaseEndpointUnknownSweet(t *testing.T) {
	repo := ledger.NewMemoryRepository()

	c, rec := newTestContext(t, repo, http.MethodPost, `{"quantity":1}`)
	c.SetPath("/sweets/:id/purchase")
	c.SetParamNames("id")
	c.SetParamValues("42")
	asUser(c, 7, common.RoleCustomer)

	require.NoError(t, purchaseSweet(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurchaseEndpointInvalidID(t *testing.T) {
	repo := ledger.NewMemoryRepository()

	c, rec := newTestContext(t, repo, http.MethodPost, `{"quantity":1}`)
	c.SetPath("/sweets/:id/purchase")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	asUser(c, 7, common.RoleCustomer)

	require.NoError(t, purchaseSweet(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseHistoryEndpoint(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Name: "Fudge", Price: 1.0, Quantity: 100, IsActive: true})

	svc := ledger.NewService(repo, nil)
	_, err := svc.Purchase(context.Background(), 1, 7, 2)
	require.NoError(t, err)
	_, err = svc.Purchase(context.Background(), 1, 99, 5)
	require.NoError(t, err)

	c, rec := newTestContext(t, repo, http.MethodGet, "")
	c.SetPath("/inventory/purchases")
	asUser(c, 7, common.RoleCustomer)

	require.NoError(t, listMyPurchases(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	sweet := entry["sweet"].(map[string]interface{})
	assert.Equal(t, "Fudge", sweet["name"])
}

func TestPurchaseHistoryEndpointBadDate(t *testing.T) {
	repo := ledger.NewMemoryRepository()

	c, rec := newTestContext(t, repo, http.MethodGet, "")
	c.SetPath("/inventory/purchases")
	c.QueryParams().Set("from", "not-a-date")
	asUser(c, 7, common.RoleCustomer)

	require.NoError(t, listMyPurchases(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLowStockEndpointWithThreshold(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Name: "Low", Price: 1, Quantity: 2, IsActive: true})
	repo.PutSweet(domain.Sweet{ID: 2, Name: "High", Price: 1, Quantity: 50, IsActive: true})

	c, rec := newTestContext(t, repo, http.MethodGet, "")
	c.SetPath("/inventory/low-stock")
	c.QueryParams().Set("threshold", "5")
	asUser(c, 1, common.RoleAdmin)

	require.NoError(t, listLowStock(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(5), data["threshold"])
	sweets := data["sweets"].([]interface{})
	require.Len(t, sweets, 1)
	assert.Equal(t, "Low", sweets[0].(map[string]interface{})["name"])
}

func TestLowStockEndpointRejectsBadThreshold(t *testing.T) {
	repo := ledger.NewMemoryRepository()

	c, rec := newTestContext(t, repo, http.MethodGet, "")
	c.SetPath("/inventory/low-stock")
	c.QueryParams().Set("threshold", "-3")
	asUser(c, 1, common.RoleAdmin)

	require.NoError(t, listLowStock(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
