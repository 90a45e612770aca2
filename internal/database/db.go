package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quocanhngo/sportcast/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config selects the driver backing the resource store
type Config struct {
	Driver   string // postgres (default) or sqlite
	DSN      string
	LogLevel logger.LogLevel
}

// Open connects gorm to the configured database
func Open(cfg Config) (*gorm.DB, error) {
	level := cfg.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// Timestamps are stored in UTC so window queries compare like with like
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	switch strings.ToLower(cfg.Driver) {
	case "", "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("postgres dsn is required")
		}
		return gorm.Open(postgres.Open(cfg.DSN), gcfg)
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:"
		}
		return gorm.Open(sqlite.Open(dsn), gcfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Models lists every table owned by the service, in creation order
func Models() []interface{} {
	return []interface{}{
		&model.Category{},
		&model.Channel{},
		&model.Match{},
		&model.User{},
		&model.NotificationLog{},
		&model.UserNotification{},
	}
}

// AutoMigrate creates or updates the schema from the gorm models
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	return db.AutoMigrate(Models()...)
}
