package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ytakahashi/todo-api/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to the database and migrates the schema.
func NewGormStore(ctx context.Context, driver, dsn string, log *logrus.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver: %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(log.GetLevel()),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %v", driver, err)
	}

	if driver == config.DriverSQLite {
		// A shared-cache in-memory database disappears with its last
		// connection, and concurrent writers on it fail with SQLITE_LOCKED.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %v", err)
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err := db.WithContext(ctx).AutoMigrate(&TodoItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %v", err)
	}

	return &GormStore{db: db}, nil
}

func gormLogLevel(level logrus.Level) gormlogger.LogLevel {
	switch {
	case level >= logrus.DebugLevel:
		return gormlogger.Info
	case level >= logrus.WarnLevel:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Create(ctx context.Context, item *TodoItem) (*TodoItem, error) {
	created := &TodoItem{Name: item.Name, IsComplete: item.IsComplete}
	if err := s.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, fmt.Errorf("failed to create todo item: %w", err)
	}
	return created, nil
}

func (s *GormStore) Find(ctx context.Context, id int) (*TodoItem, error) {
	var item TodoItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find todo item %d: %w", id, err)
	}
	return &item, nil
}

func (s *GormStore) Update(ctx context.Context, item *TodoItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing TodoItem
		if err := tx.First(&existing, item.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find todo item %d: %w", item.ID, err)
		}

		existing.Name = item.Name
		existing.IsComplete = item.IsComplete
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update todo item %d: %w", item.ID, err)
		}
		return nil
	})
}

func (s *GormStore) Delete(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&TodoItem{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete todo item %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) List(ctx context.Context) ([]*TodoItem, error) {
	var items []*TodoItem
	if err := s.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list todo items: %w", err)
	}
	return items, nil
}

func (s *GormStore) ListCompleted(ctx context.Context) ([]*TodoItem, error) {
	var items []*TodoItem
	err := s.db.WithContext(ctx).
		Where(&TodoItem{IsComplete: true}).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed todo items: %w", err)
	}
	return items, nil
}
