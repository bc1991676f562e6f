package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angesh007/CollabCode/internal/models"
)

// Store persists room records and document snapshots.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the room table.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewStore(db)
}

// NewStore wraps an existing connection (used in tests with in-memory sqlite).
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.RoomRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateRoom(ctx context.Context, id string) error {
	record := models.RoomRecord{ID: id, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Create(&record).Error
}

// SaveSnapshot upserts the room's document snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, id, code string) error {
	record := models.RoomRecord{ID: id, Code: code, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "updated_at"}),
		}).
		Create(&record).Error
}

// LoadSnapshot returns the stored document for id. The second return value
// is false when the room was never persisted.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (string, bool, error) {
	var record models.RoomRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return record.Code, true, nil
}
