package database

import (
	"context"
	"fmt"
	"time"

	"codescan/internal/config"
	"codescan/internal/logger"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// pure-Go SQLite engine, registered as driver "sqlite"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database and migrates the schema
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(logger.GormLevel(log, cfg.LogQueries)),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Type {
	case "mysql":
		db, err = connectMySQL(cfg, gormCfg)
	case "postgres", "postgresql":
		db, err = connectPostgreSQL(cfg, gormCfg)
	case "sqlite", "":
		db, err = connectSQLite(cfg.Path, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	if err := migrateTables(db); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	log.Info().Str("type", cfg.Type).Msg("database connected and migrated")
	return db, nil
}

// connectMySQL connects to MySQL database
func connectMySQL(cfg config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&timeout=10s&readTimeout=30s&writeTimeout=30s",
		orDefault(cfg.User, "root"), cfg.Password, orDefault(cfg.Host, "127.0.0.1"), orDefault(cfg.Port, "3306"), cfg.Name)

	db, err := gorm.Open(mysql.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	return db, configurePool(db, cfg)
}

// connectPostgreSQL connects to PostgreSQL database
func connectPostgreSQL(cfg config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		orDefault(cfg.Host, "localhost"), orDefault(cfg.Port, "5432"), orDefault(cfg.User, "postgres"), cfg.Password, cfg.Name)

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	return db, configurePool(db, cfg)
}

// connectSQLite opens the embedded store. A single connection lets SQLite
// serialize writes without "database is locked" errors.
func connectSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		path = "codescan.db"
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func configurePool(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(cfg.MaxLife)
	return nil
}

// Ping checks that the database connection is alive
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
