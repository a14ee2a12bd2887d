package model

import "time"

type User struct {
	RowID        uint64    `gorm:"column:row_id;primaryKey;autoIncrement"`
	ID           string    `gorm:"column:id;type:text;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	IsEditor     bool      `gorm:"column:is_editor;not null;default:0"`
	IsAdmin      bool      `gorm:"column:is_admin;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
