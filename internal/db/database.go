package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/statusbeacon/engine/internal/config"
	monitoring "github.com/statusbeacon/engine/internal/monitoring/models"
)

// Database wraps the shared gorm connection the engine's stores are built on.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens a connection supporting PostgreSQL, MySQL, and SQLite.
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	gormConfig := &gorm.Config{
		Logger: newLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error

	dbType := cfg.Type
	if dbType == "" {
		dbType = "sqlite"
	}

	switch dbType {
	case "postgres", "postgresql":
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)

	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
		)
		db, err = gorm.Open(mysql.Open(dsn), gormConfig)

	case "sqlite":
		dsn := cfg.Name
		if dsn == "" {
			dsn = "statusbeacon.db"
		}
		logrus.Infof("SQLite database path: %s", dsn)
		db, err = gorm.Open(sqlite.Open(dsn), gormConfig)

	default:
		return nil, fmt.Errorf("unsupported database type: %s (supported: postgres, mysql, sqlite)", dbType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", dbType, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if dbType != "sqlite" {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if dbType == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}

	logrus.Infof("Database connection established successfully (type: %s)", dbType)

	return &Database{DB: db}, nil
}

// AutoMigrate runs database migrations for the monitoring engine's schema.
func (d *Database) AutoMigrate() error {
	logrus.Info("Running database migrations...")

	err := d.DB.AutoMigrate(
		&monitoring.Monitor{},
		&monitoring.FixedWindow{},
		&monitoring.Check{},
		&monitoring.Incident{},
		&monitoring.StatusHistoryDay{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
