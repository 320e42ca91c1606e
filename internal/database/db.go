package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"todoapp/internal/config"
	"todoapp/internal/models"
	"todoapp/pkg/logger"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a gorm handle: postgres when DATABASE_URL is set, otherwise a
// sqlite file at DATABASE_PATH.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return OpenPostgres(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", cfg.DatabasePath)
	db, err := OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "SQLite database opened", "path", cfg.DatabasePath)
	return db, nil
}

// OpenPostgres builds a lib/pq pool and hands it to gorm.
func OpenPostgres(ctx context.Context, url string, poolSize int) (*gorm.DB, error) {
	if strings.HasPrefix(url, "postgresql://") {
		url = "postgres://" + strings.TrimPrefix(url, "postgresql://")
	}
	pool, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pool.SetMaxOpenConns(poolSize)
	pool.SetMaxIdleConns(max(poolSize/2, 1))
	pool.SetConnMaxIdleTime(5 * time.Minute)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: pool}), gormConfig())
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	logger.Info(ctx, "Database pool initialized", "max_open", poolSize)
	return db, nil
}

// OpenSQLite opens a sqlite database. SQLite serializes writers, so the pool
// is pinned to a single connection.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pool, err := db.DB()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates or updates the users and todos tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Todo{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping checks store connectivity.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database not initialized")
	}
	pool, err := db.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	pool, err := db.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(slog.NewLogLogger(logger.FromContext(context.Background()).Handler(), slog.LevelWarn), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}
}
