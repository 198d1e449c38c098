package database

import (
	"context"
	"fmt"

	"github.com/yukikurage/task-manager/internal/config"
	"github.com/yukikurage/task-manager/internal/logging"
	"github.com/yukikurage/task-manager/internal/models"
	"github.com/yukikurage/task-manager/internal/repository"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Stores bundles the repositories for the configured backend.
type Stores struct {
	Tasks repository.TaskRepository
	Users repository.UserRepository
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// Open connects to the store selected by cfg.StoreDriver, prepares its schema
// and returns repositories bound to it.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if cfg.StoreDriver == config.DriverMongo {
		return openMongo(ctx, cfg)
	}

	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	return &Stores{
		Tasks: repository.NewTaskRepository(db),
		Users: repository.NewUserRepository(db),
		Ping:  sqlDB.PingContext,
		Close: func(context.Context) error { return sqlDB.Close() },
	}, nil
}

// Connect opens a GORM connection for the relational drivers.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Info
	if cfg.IsRelease() {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Logger.WithField("driver", cfg.StoreDriver).Info("database connection established")
	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		return mysql.Open(mysqlDSN(cfg)), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// mysqlDSN reports matched rather than changed rows, so an update that
// writes identical values still affects one row.
func mysqlDSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	logging.Logger.Info("running database migrations")
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := AddIndexes(db); err != nil {
		return err
	}
	logging.Logger.Info("database migrations completed")
	return nil
}
