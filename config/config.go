package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type SystemConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
	// JwtExpire is the token lifetime in hours.
	JwtExpire int `yaml:"jwt_expire" json:"jwt_expire"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AdminConfig struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
}

type MailConfig struct {
	Enable   bool   `yaml:"enable" json:"enable"`
	SMTPHost string `yaml:"smtp_host" json:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port" json:"smtp_port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
	To       string `yaml:"to" json:"to"`
}

type NotifyConfig struct {
	WebhookEnable bool   `yaml:"webhook_enable" json:"webhook_enable"`
	WebhookURL    string `yaml:"webhook_url" json:"webhook_url"`
	// Workers sizes the async dispatch pool.
	Workers int `yaml:"workers" json:"workers"`
}

type AppConfig struct {
	System   SystemConfig `yaml:"system" json:"system"`
	Web      WebConfig    `yaml:"web" json:"web"`
	Database DBConfig     `yaml:"database" json:"database"`
	Logger   LoggerConfig `yaml:"logger" json:"logger"`
	Admin    AdminConfig  `yaml:"admin" json:"admin"`
	Mail     MailConfig   `yaml:"mail" json:"mail"`
	Notify   NotifyConfig `yaml:"notify" json:"notify"`
}

var DefaultAppConfig = &AppConfig{
	System: SystemConfig{
		Appid:    "sweetshop",
		Location: "Asia/Jakarta",
		Workdir:  "/var/sweetshop",
		Debug:    true,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		JwtSecret: "9b6de5cc-sweetshop-0f855176-secret",
		JwtExpire: 24,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "sweetshop",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LoggerConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/sweetshop/sweetshop.log",
	},
	Admin: AdminConfig{
		Email:    "admin@sweetshop.com",
		Password: "Admin123!",
	},
	Mail: MailConfig{
		SMTPPort: 587,
	},
	Notify: NotifyConfig{
		Workers: 8,
	},
}

func setEnvValue(name string, f func(v string)) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		f(v)
	}
}

func setEnvInt64Value(name string, f func(v int64)) {
	setEnvValue(name, func(v string) {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			f(i)
		}
	})
}

func setEnvBoolValue(name string, f func(v bool)) {
	setEnvValue(name, func(v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			f(b)
		}
	})
}

// LoadConfig reads the YAML configuration file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("SWEETSHOP_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvBoolValue("SWEETSHOP_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })
	setEnvValue("SWEETSHOP_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvInt64Value("SWEETSHOP_WEB_PORT", func(v int64) { cfg.Web.Port = int(v) })
	setEnvValue("SWEETSHOP_WEB_JWT_SECRET", func(v string) { cfg.Web.JwtSecret = v })
	setEnvValue("SWEETSHOP_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvInt64Value("SWEETSHOP_DB_PORT", func(v int64) { cfg.Database.Port = int(v) })
	setEnvValue("SWEETSHOP_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("SWEETSHOP_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("SWEETSHOP_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("SWEETSHOP_ADMIN_EMAIL", func(v string) { cfg.Admin.Email = v })
	setEnvValue("SWEETSHOP_ADMIN_PWD", func(v string) { cfg.Admin.Password = v })
	setEnvValue("SWEETSHOP_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })

	return cfg
}
