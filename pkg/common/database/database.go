// Package database owns the GORM handle: it is opened once at process start,
// injected into the repositories and closed at shutdown.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/samber/oops"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"my-blog/pkg/common/config"
)

// Database wraps the GORM handle together with its pool.
type Database struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Open 初始化数据库连接
func Open(cfg config.DatabaseConfig) (*Database, error) {
	dialector, err := newDialector(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
	// 配置GORM日志级别
	switch cfg.LogLevel {
	case "silent":
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	case "error":
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	case "warn":
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	case "info":
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, oops.In("database").Code("DB_OPEN").With("driver", cfg.Driver).Wrapf(err, "failed to open database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, oops.In("database").Code("DB_OPEN").Wrapf(err, "failed to get database instance")
	}

	// 设置连接池
	if cfg.MinPoolSize > 0 {
		sqlDB.SetMaxIdleConns(cfg.MinPoolSize)
	}
	if cfg.MaxPoolSize > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxPoolSize)
	}

	return &Database{db: db, sqlDB: sqlDB}, nil
}

func newDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		// time columns need parseTime, stored in UTC
		mc, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, oops.In("database").Code("DB_DSN").Wrapf(err, "invalid mysql dsn")
		}
		mc.ParseTime = true
		mc.Loc = time.UTC
		if mc.Params == nil {
			mc.Params = map[string]string{}
		}
		if _, ok := mc.Params["charset"]; !ok {
			mc.Params["charset"] = "utf8mb4"
		}
		return gormmysql.Open(mc.FormatDSN()), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Gorm returns the handle the repositories are built on.
func (d *Database) Gorm() *gorm.DB {
	return d.db
}

// Migrate runs each model migration in order.
func (d *Database) Migrate(ctx context.Context, migrations ...func(*gorm.DB) error) error {
	db := d.db.WithContext(ctx)
	for _, m := range migrations {
		if err := m(db); err != nil {
			return oops.In("database").Code("DB_MIGRATE").Wrap(err)
		}
	}
	return nil
}

// Ping is used by the health check.
func (d *Database) Ping(ctx context.Context) error {
	return d.sqlDB.PingContext(ctx)
}

// Close releases the pool.
func (d *Database) Close() error {
	return d.sqlDB.Close()
}
