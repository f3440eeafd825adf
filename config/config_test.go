package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")
	assert.Equal(t, "sweetshop", cfg.System.Appid)
	assert.Equal(t, 1816, cfg.Web.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 24, cfg.Web.JwtExpire)
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
web:
  host: 127.0.0.1
  port: 9000
  jwt_secret: test-secret
  jwt_expire: 12
database:
  type: postgres
  host: db.internal
  name: shop
admin:
  email: boss@example.com
`
	cfile := filepath.Join(t.TempDir(), "sweetshop.yml")
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, "127.0.0.1", cfg.Web.Host)
	assert.Equal(t, 9000, cfg.Web.Port)
	assert.Equal(t, "test-secret", cfg.Web.JwtSecret)
	assert.Equal(t, 12, cfg.Web.JwtExpire)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "shop", cfg.Database.Name)
	assert.Equal(t, "boss@example.com", cfg.Admin.Email)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SWEETSHOP_WEB_PORT", "8088")
	t.Setenv("SWEETSHOP_DB_HOST", "10.0.0.5")
	t.Setenv("SWEETSHOP_ADMIN_EMAIL", "root@sweetshop.local")

	cfg := LoadConfig("")
	assert.Equal(t, 8088, cfg.Web.Port)
	assert.Equal(t, "10.0.0.5", cfg.Database.Host)
	assert.Equal(t, "root@sweetshop.local", cfg.Admin.Email)
}
