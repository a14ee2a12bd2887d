package model

import "time"

// App rows are ordered by RowID; ID is the public identifier.
type App struct {
	RowID     uint64    `gorm:"column:row_id;primaryKey;autoIncrement"`
	ID        string    `gorm:"column:id;type:text;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;type:text;not null"`
	URL       string    `gorm:"column:url;type:text;not null;default:''"`
	Embed     string    `gorm:"column:embed;type:text;not null;default:''"`
	Approval  string    `gorm:"column:approval;type:text;not null;index"`
	Privacy   string    `gorm:"column:privacy;type:text;not null"`
	Platforms []string  `gorm:"column:platforms;type:text;serializer:json"`
	Grades    []string  `gorm:"column:grades;type:text;serializer:json"`
	Subjects  []string  `gorm:"column:subjects;type:text;serializer:json"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (App) TableName() string {
	return "apps"
}
