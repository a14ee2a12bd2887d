package schema

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"appcatalog/internal/errs"
	"appcatalog/internal/infrastructure/persistence/sqlite/model"
)

// Version is bumped whenever a model changes shape.
const Version = "2"

const versionKey = "schema_version"

type Meta struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (Meta) TableName() string {
	return "schema_meta"
}

// Models lists every table the application owns.
func Models() []any {
	return []any{
		&model.App{},
		&model.User{},
		&model.KVEntry{},
		&Meta{},
	}
}

// Migrate creates or updates all tables and records Version.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	row := Meta{Key: versionKey, Value: Version}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "record schema version")
	}
	return nil
}

// CurrentVersion returns the recorded version, or "" before the first Migrate.
func CurrentVersion(ctx context.Context, db *gorm.DB) (string, error) {
	var row Meta
	err := db.WithContext(ctx).Where("key = ?", versionKey).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errs.Wrap(err, "query schema version")
	}
	return row.Value, nil
}
