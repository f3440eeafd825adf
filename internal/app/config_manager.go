package app

import (
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"go.uber.org/zap"
)

const settingsCacheTTL = 30 * time.Second

// InventorySettings is the typed view of the "inventory" settings category.
type InventorySettings struct {
	LowStockThreshold int64 `mapstructure:"low_stock_threshold"`
	NotifyEmail       bool  `mapstructure:"notify_email"`
	NotifyWebhook     bool  `mapstructure:"notify_webhook"`
}

// ConfigManager reads runtime settings from the sys_config table with a
// short-lived cache. Values are stored as strings and cast on access.
type ConfigManager struct {
	app      *Application
	mu       sync.RWMutex
	cache    map[string]string
	loadedAt time.Time
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{app: app, cache: make(map[string]string)}
}

func (m *ConfigManager) load() {
	m.mu.RLock()
	fresh := time.Since(m.loadedAt) < settingsCacheTTL
	m.mu.RUnlock()
	if fresh {
		return
	}

	var rows []domain.SysConfig
	if err := m.app.DB().Find(&rows).Error; err != nil {
		zap.L().Warn("failed to load settings", zap.Error(err))
		return
	}

	next := make(map[string]string, len(rows))
	for _, row := range rows {
		next[row.Type+"."+row.Name] = row.Value
	}

	m.mu.Lock()
	m.cache = next
	m.loadedAt = time.Now()
	m.mu.Unlock()
}

// Invalidate drops the cache so the next read hits the database.
func (m *ConfigManager) Invalidate() {
	m.mu.Lock()
	m.loadedAt = time.Time{}
	m.mu.Unlock()
}

func (m *ConfigManager) get(category, key string) string {
	m.load()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache[category+"."+key]
}

func (m *ConfigManager) GetString(category, key string) string {
	return m.get(category, key)
}

func (m *ConfigManager) GetInt64(category, key string) int64 {
	return cast.ToInt64(m.get(category, key))
}

func (m *ConfigManager) GetBool(category, key string) bool {
	return cast.ToBool(m.get(category, key))
}

// GetCategory returns all settings of a category as a name->value map.
func (m *ConfigManager) GetCategory(category string) map[string]interface{} {
	m.load()
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]interface{})
	for k, v := range m.cache {
		if len(k) > len(category) && k[:len(category)] == category && k[len(category)] == '.' {
			out[k[len(category)+1:]] = v
		}
	}
	return out
}

// InventorySettings decodes the "inventory" category into its typed view.
func (m *ConfigManager) InventorySettings() InventorySettings {
	settings := InventorySettings{LowStockThreshold: 10}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &settings,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return settings
	}
	if err := decoder.Decode(m.GetCategory("inventory")); err != nil {
		zap.L().Warn("failed to decode inventory settings", zap.Error(err))
	}
	return settings
}

// SaveSetting upserts a settings row and invalidates the cache.
func (m *ConfigManager) SaveSetting(category, name, value string) error {
	var count int64
	m.app.DB().Model(&domain.SysConfig{}).
		Where("type = ? AND name = ?", category, name).
		Count(&count)

	var err error
	if count == 0 {
		err = m.app.DB().Create(&domain.SysConfig{
			Type:  category,
			Name:  name,
			Value: value,
		}).Error
	} else {
		err = m.app.DB().Model(&domain.SysConfig{}).
			Where("type = ? AND name = ?", category, name).
			Updates(map[string]interface{}{"value": value, "updated_at": time.Now()}).Error
	}
	if err != nil {
		return err
	}
	m.Invalidate()
	return nil
}
