package app

import (
	"errors"
	"strings"
	"time"

	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *Application) checkAdmin() {
	adminEmail := strings.TrimSpace(a.appConfig.Admin.Email)
	if adminEmail == "" {
		adminEmail = "admin@sweetshop.com"
	}

	var admin domain.User
	err := a.gormDB.Where("email = ?", adminEmail).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, herr := common.HashPassword(a.appConfig.Admin.Password)
		if herr != nil {
			zap.L().Error("failed to hash default admin password", zap.Error(herr))
			return
		}
		if err := a.gormDB.Create(&domain.User{
			ID:        common.UUIDint64(),
			Email:     adminEmail,
			Password:  hashed,
			Name:      "Admin User",
			Role:      common.RoleAdmin,
			Status:    common.ENABLED,
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default admin account", zap.Error(err))
		} else {
			zap.L().Info("initialized default admin account", zap.String("email", adminEmail))
		}
		return
	case err != nil:
		zap.L().Error("failed to query admin account", zap.Error(err))
		return
	}

	resetRole := !strings.EqualFold(admin.Role, common.RoleAdmin)
	resetStatus := !strings.EqualFold(admin.Status, common.ENABLED)
	if !resetRole && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetRole {
		updates["role"] = common.RoleAdmin
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.User{}).Where("id = ?", admin.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default admin account",
		zap.String("email", adminEmail),
		zap.Bool("roleReset", resetRole),
		zap.Bool("statusEnabled", resetStatus))
}

func (a *Application) checkSettings() {
	defaults := []domain.SysConfig{
		{Sort: 1, Type: "inventory", Name: "low_stock_threshold", Value: "10", Remark: "Quantity at or below which a sweet counts as low stock"},
		{Sort: 2, Type: "inventory", Name: "notify_email", Value: "false", Remark: "Send low stock alert emails"},
		{Sort: 3, Type: "inventory", Name: "notify_webhook", Value: "false", Remark: "Post low stock alerts to the configured webhook"},
		{Sort: 4, Type: "shop", Name: "currency", Value: "USD", Remark: "Display currency"},
	}

	for _, setting := range defaults {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", setting.Type, setting.Name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&setting)
			zap.L().Info("initialized config",
				zap.String("key", setting.Type+"."+setting.Name),
				zap.String("default", setting.Value))
		}
	}
}

// checkSchedulers initializes default scheduled tasks
func (a *Application) checkSchedulers() {
	defaultSchedulers := []domain.ShopScheduler{
		{
			Name:     "Low Stock Scan",
			TaskType: "low_stock_scan",
			Interval: 300, // 5 minutes
			Status:   common.ENABLED,
			Remark:   "Periodically scans for sweets at or below the low stock threshold",
		},
		{
			Name:     "Operation Log Prune",
			TaskType: "oplog_prune",
			Interval: 86400, // daily
			Status:   common.ENABLED,
			Remark:   "Removes operation log entries older than one year",
		},
	}

	for _, sched := range defaultSchedulers {
		var count int64
		a.gormDB.Model(&domain.ShopScheduler{}).
			Where("task_type = ?", sched.TaskType).
			Count(&count)

		if count == 0 {
			sched.NextRunAt = time.Now().Add(time.Duration(sched.Interval) * time.Second)
			if err := a.gormDB.Create(&sched).Error; err != nil {
				zap.L().Error("failed to create default scheduler",
					zap.String("name", sched.Name),
					zap.Error(err))
			} else {
				zap.L().Info("initialized default scheduler",
					zap.String("name", sched.Name),
					zap.String("task_type", sched.TaskType))
			}
		}
	}
}

// checkSweets seeds demo catalog entries when the table is empty
func (a *Application) checkSweets() {
	var count int64
	a.gormDB.Model(&domain.Sweet{}).Count(&count)
	if count > 0 {
		return
	}

	demoSweets := []domain.Sweet{
		{Name: "Belgian Dark Chocolate Truffles", Category: "Chocolate", Price: 24.99, Quantity: 85,
			Description: "Artisanal dark chocolate truffles filled with silky ganache and dusted with cocoa powder."},
		{Name: "Swiss Milk Chocolate Bar", Category: "Chocolate", Price: 18.50, Quantity: 120,
			Description: "Premium Swiss milk chocolate with toasted almonds and a hint of sea salt."},
		{Name: "White Chocolate Raspberry Hearts", Category: "Chocolate", Price: 22.75, Quantity: 65,
			Description: "White chocolate hearts filled with tangy raspberry compote."},
		{Name: "Triple Chocolate Fudge Cake", Category: "Cake", Price: 45.99, Quantity: 12,
			Description: "Three layers of chocolate cake with mousse filling and ganache frosting."},
		{Name: "Red Velvet Cheesecake", Category: "Cake", Price: 42.50, Quantity: 15,
			Description: "Red velvet cake layered with New York-style cheesecake."},
		{Name: "French Lemon Tart", Category: "Cake", Price: 38.75, Quantity: 20,
			Description: "Classic French lemon tart with buttery shortcrust pastry."},
	}

	for _, sweet := range demoSweets {
		sweet.ID = common.UUIDint64()
		sweet.IsActive = true
		sweet.CreatedAt = time.Now()
		sweet.UpdatedAt = time.Now()
		if err := a.gormDB.Create(&sweet).Error; err != nil {
			zap.L().Error("failed to create demo sweet", zap.String("name", sweet.Name), zap.Error(err))
		} else {
			zap.L().Info("initialized demo sweet", zap.String("name", sweet.Name))
		}
	}
}
