package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		SecretKey        string
		LogLevel         string
		RollbarToken     string
		Timezone         string
		DefaultFromEmail mail.Address

		Server    ServerConfig
		Database  DatabaseConfig
		Mail      MailConfig
		Session   SessionConfig
		Messaging MessagingConfig
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		SessionTTL      time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite file
	}

	MailConfig struct {
		Provider       string // console | smtp | sendgrid
		SMTPHost       string
		SMTPPort       int
		SendgridApiKey string
	}

	SessionConfig struct {
		Store         string // memory | redis
		RedisAddr     string
		RedisPassword string
		RedisDB       int
	}

	MessagingConfig struct {
		BaseURL     string
		CountryCode string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Location returns the time zone used to decide what "today" is.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Secretaria")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "w9#kq2-lv!s8d$0zx&me+4hy)u7p(b3c_r6t=a1nfj5g")
	conf.SetDefault("logLevel", "info")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("timezone", "America/Sao_Paulo")
	conf.SetDefault("defaultFromName", "Secretaria")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")

	conf.SetDefault("server.host", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.sessionTTL", 12*time.Hour)

	conf.SetDefault("database.engine", "sqlite")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.name", "secretaria")
	conf.SetDefault("database.user", "secretaria")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.path", "secretaria.db")

	conf.SetDefault("mail.provider", "console")
	conf.SetDefault("mail.smtpHost", "smtp.gmail.com")
	conf.SetDefault("mail.smtpPort", 587)
	conf.SetDefault("mail.sendgridApiKey", "")

	conf.SetDefault("session.store", "memory")
	conf.SetDefault("session.redisAddr", "localhost:6379")
	conf.SetDefault("session.redisPassword", "")
	conf.SetDefault("session.redisDB", 0)

	conf.SetDefault("messaging.baseURL", "https://wa.me")
	conf.SetDefault("messaging.countryCode", "55")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		SecretKey:    conf.GetString("secretKey"),
		LogLevel:     conf.GetString("logLevel"),
		RollbarToken: conf.GetString("rollbarToken"),
		Timezone:     conf.GetString("timezone"),
		DefaultFromEmail: mail.Address{
			Name:    conf.GetString("defaultFromName"),
			Address: conf.GetString("defaultFromEmail"),
		},
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			SessionTTL:      conf.GetDuration("server.sessionTTL"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetInt("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
			Path:          conf.GetString("database.path"),
		},
		Mail: MailConfig{
			Provider:       conf.GetString("mail.provider"),
			SMTPHost:       conf.GetString("mail.smtpHost"),
			SMTPPort:       conf.GetInt("mail.smtpPort"),
			SendgridApiKey: conf.GetString("mail.sendgridApiKey"),
		},
		Session: SessionConfig{
			Store:         conf.GetString("session.store"),
			RedisAddr:     conf.GetString("session.redisAddr"),
			RedisPassword: conf.GetString("session.redisPassword"),
			RedisDB:       conf.GetInt("session.redisDB"),
		},
		Messaging: MessagingConfig{
			BaseURL:     conf.GetString("messaging.baseURL"),
			CountryCode: conf.GetString("messaging.countryCode"),
		},
	}
}
