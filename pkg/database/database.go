package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hms-service/pkg/config"
)

// DB is the shared database instance. It holds identity-independent data
// (tenant registry, audit log) and is never used for tenant-scoped records.
var DB *gorm.DB

// InitDB initializes the shared database connection with configuration
func InitDB(cfg *config.Config) error {
	db, err := Open(cfg.DB.GetDSN(), &cfg.DB)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open opens a PostgreSQL connection for the given DSN using the pool
// settings from config. Used for both the shared store and tenant stores.
func Open(dsn string, dbConfig *config.DBConfig) (*gorm.DB, error) {
	pgConfig := postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: gormlogger.Default.LogMode(dbConfig.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

// MigrateModels runs migrations for the provided models on the given database
func MigrateModels(db *gorm.DB, models ...interface{}) error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// GetDB returns the shared database instance
func GetDB() *gorm.DB {
	return DB
}
