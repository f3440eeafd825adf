package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/internal/webserver"
	"github.com/sweetlabs/sweetshop/pkg/common"
	"gorm.io/gorm"
)

type sweetPayload struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description string  `json:"description"`
	Category    string  `json:"category" validate:"required,min=1,max=100"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Quantity    *int    `json:"quantity" validate:"omitempty,gte=0"`
	ImageURL    string  `json:"imageUrl"`
}

func registerSweetRoutes() {
	webserver.ApiGET("/sweets", listSweets)
	webserver.ApiGET("/sweets/search", searchSweets)
	webserver.ApiGET("/sweets/categories", listCategories)
	webserver.ApiGET("/sweets/:id", getSweet)
	webserver.ApiPOST("/sweets", createSweet, webserver.RequireAdmin)
	webserver.ApiPUT("/sweets/:id", updateSweet, webserver.RequireAdmin)
	webserver.ApiDELETE("/sweets/:id", deleteSweet, webserver.RequireAdmin)
}

func listSweets(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Sweet{}).Where("is_active = ?", true)
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		db = db.Where("category = ?", category)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sweets", err.Error())
	}

	var rows []domain.Sweet
	if err := db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sweets", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func searchSweets(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Sweet{}).Where("is_active = ?", true)

	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		db = db.Where("category = ?", category)
	}
	if v := c.QueryParam("minPrice"); v != "" {
		db = db.Where("price >= ?", cast.ToFloat64(v))
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		db = db.Where("price <= ?", cast.ToFloat64(v))
	}
	if cast.ToBool(c.QueryParam("inStock")) {
		db = db.Where("quantity > 0")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search sweets", err.Error())
	}

	var rows []domain.Sweet
	if err := db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to search sweets", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func listCategories(c echo.Context) error {
	var categories []string
	err := GetDB(c).Model(&domain.Sweet{}).
		Where("is_active = ?", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list categories", err.Error())
	}
	return ok(c, categories)
}

func getSweet(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}
	var sweet domain.Sweet
	if err := GetDB(c).Where("id = ? AND is_active = ?", id, true).First(&sweet).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Sweet not found", nil)
	}
	return ok(c, sweet)
}

func createSweet(c echo.Context) error {
	var payload sweetPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse sweet", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid sweet payload", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)

	var count int64
	GetDB(c).Model(&domain.Sweet{}).Where("name = ?", payload.Name).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "NAME_TAKEN", "A sweet with this name already exists", nil)
	}

	qty := 0
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}
	sweet := domain.Sweet{
		ID:          common.UUIDint64(),
		Name:        payload.Name,
		Description: payload.Description,
		Category:    strings.TrimSpace(payload.Category),
		Price:       payload.Price,
		Quantity:    qty,
		ImageURL:    payload.ImageURL,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := GetDB(c).Create(&sweet).Error; err != nil {
		if isDuplicateKey(err) {
			return fail(c, http.StatusConflict, "NAME_TAKEN", "A sweet with this name already exists", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create sweet", err.Error())
	}

	logOp(c, "create_sweet", sweet.Name)
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "data": sweet})
}

func updateSweet(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}

	var sweet domain.Sweet
	if err := GetDB(c).Where("id = ? AND is_active = ?", id, true).First(&sweet).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Sweet not found", nil)
	}

	var payload sweetPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse sweet", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid sweet payload", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)

	if payload.Name != sweet.Name {
		var count int64
		GetDB(c).Model(&domain.Sweet{}).Where("name = ? AND id <> ?", payload.Name, id).Count(&count)
		if count > 0 {
			return fail(c, http.StatusConflict, "NAME_TAKEN", "A sweet with this name already exists", nil)
		}
	}

	updates := map[string]interface{}{
		"name":        payload.Name,
		"description": payload.Description,
		"category":    strings.TrimSpace(payload.Category),
		"price":       payload.Price,
		"image_url":   payload.ImageURL,
		"updated_at":  time.Now(),
	}
	if err := GetDB(c).Model(&domain.Sweet{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if isDuplicateKey(err) {
			return fail(c, http.StatusConflict, "NAME_TAKEN", "A sweet with this name already exists", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update sweet", err.Error())
	}

	if err := GetDB(c).Where("id = ?", id).First(&sweet).Error; err != nil && err != gorm.ErrRecordNotFound {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to reload sweet", err.Error())
	}
	logOp(c, "update_sweet", sweet.Name)
	return ok(c, sweet)
}

// deleteSweet deactivates the sweet instead of removing the row so that
// purchase and restock history keeps resolving.
func deleteSweet(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sweet ID", nil)
	}

	result := GetDB(c).Model(&domain.Sweet{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete sweet", result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Sweet not found", nil)
	}

	logOp(c, "delete_sweet", c.Param("id"))
	return ok(c, map[string]interface{}{"deleted": true})
}
