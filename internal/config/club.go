package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

// ClubConfig holds the club-level settings shared by services and handlers.
type ClubConfig struct {
	Location         *time.Location
	DefaultPageSize  int
	MaxPageSize      int
	SessionListLimit int
	EventListKey     string
	StorageDriver    StorageDriver
	MemberSeedFile   string
	AutoMigrate      bool
	JWTSecret        string
	Port             string
	AllowedOrigins   []string
	ShutdownTimeout  time.Duration
}

// BindEnv maps environment variables onto viper keys. It must run before Load.
func BindEnv() {
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	viper.BindEnv("database.auto_migrate", "DATABASE_AUTO_MIGRATE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	viper.BindEnv("club.timezone", "CLUB_TIMEZONE")
	viper.BindEnv("club.default_page_size", "CLUB_DEFAULT_PAGE_SIZE")
	viper.BindEnv("club.max_page_size", "CLUB_MAX_PAGE_SIZE")
	viper.BindEnv("club.session_list_limit", "CLUB_SESSION_LIST_LIMIT")
	viper.BindEnv("club.event_list_key", "CLUB_EVENT_LIST_KEY")

	viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	viper.BindEnv("storage.member_seed_file", "STORAGE_MEMBER_SEED_FILE")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")
}

func Load() (*ClubConfig, error) {
	viper.SetDefault("club.timezone", "Asia/Ho_Chi_Minh")
	viper.SetDefault("club.default_page_size", 10)
	viper.SetDefault("club.max_page_size", 100)
	viper.SetDefault("club.session_list_limit", 20)
	viper.SetDefault("club.event_list_key", "club:ledger-events")
	viper.SetDefault("storage.driver", string(StoragePostgres))
	viper.SetDefault("database.auto_migrate", true)
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.allowed_origins", "https://*,http://*")
	viper.SetDefault("server.shutdown_timeout", 30*time.Second)

	loc, err := time.LoadLocation(viper.GetString("club.timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid club timezone: %w", err)
	}

	driver := StorageDriver(strings.ToLower(viper.GetString("storage.driver")))
	if driver != StoragePostgres && driver != StorageMemory {
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	seedFile := viper.GetString("storage.member_seed_file")
	if driver == StorageMemory && seedFile == "" {
		return nil, fmt.Errorf("storage.member_seed_file is required for the memory driver")
	}

	secret := viper.GetString("jwt.secret_key")
	if secret == "" {
		return nil, fmt.Errorf("jwt.secret_key is required")
	}

	cfg := &ClubConfig{
		Location:         loc,
		DefaultPageSize:  viper.GetInt("club.default_page_size"),
		MaxPageSize:      viper.GetInt("club.max_page_size"),
		SessionListLimit: viper.GetInt("club.session_list_limit"),
		EventListKey:     viper.GetString("club.event_list_key"),
		StorageDriver:    driver,
		MemberSeedFile:   seedFile,
		AutoMigrate:      viper.GetBool("database.auto_migrate"),
		JWTSecret:        secret,
		Port:             viper.GetString("server.port"),
		AllowedOrigins:   strings.Split(viper.GetString("server.allowed_origins"), ","),
		ShutdownTimeout:  viper.GetDuration("server.shutdown_timeout"),
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	return cfg, nil
}

// PageParams clamps a requested page and limit to the configured bounds.
func (c *ClubConfig) PageParams(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = c.DefaultPageSize
	}
	if limit > c.MaxPageSize {
		limit = c.MaxPageSize
	}
	return page, limit
}
