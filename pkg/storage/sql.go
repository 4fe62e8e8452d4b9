package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entry is the row layout of the sql driver.
type entry struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     []byte
	UpdatedAt time.Time
}

func (entry) TableName() string { return "canteen_storage" }

type sqlDisk struct {
	db *gorm.DB
}

// NewSQL returns a Store on db, migrating the storage table if needed.
func NewSQL(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("storage/sql: migrate: %w", err)
	}
	return &sqlDisk{db: db}, nil
}

func (d *sqlDisk) Get(key string) ([]byte, error) {
	var e entry
	err := d.db.Where(&entry{Key: key}).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage/sql: get %s: %w", key, err)
	}
	return e.Value, nil
}

// Put upserts in one statement so the row is replaced atomically.
func (d *sqlDisk) Put(key string, value []byte) error {
	e := entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("storage/sql: put %s: %w", key, err)
	}
	return nil
}

func (d *sqlDisk) Delete(key string) error {
	if err := d.db.Delete(&entry{Key: key}).Error; err != nil {
		return fmt.Errorf("storage/sql: delete %s: %w", key, err)
	}
	return nil
}

func (d *sqlDisk) Exists(key string) bool {
	var n int64
	if err := d.db.Model(&entry{}).Where(&entry{Key: key}).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}

func (d *sqlDisk) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
