package model

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post 博客文章, OwnerID 创建后不可修改
type Post struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Content   string    `gorm:"type:text;not null"`
	Image     string    `gorm:"type:varchar(2048)"`
	Status    Status    `gorm:"type:varchar(16);not null;default:published"`
	OwnerID   string    `gorm:"type:varchar(36);index;not null"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (Post) TableName() string {
	return "blog_posts"
}

// PostChanges is the mutable part of a post. Nil pointers leave the column
// untouched.
type PostChanges struct {
	Title     string
	Content   string
	Image     *string
	Status    *Status
	UpdatedAt time.Time
}

func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "COMMENT='博客文章表'")
	}
	return db.AutoMigrate(&Post{})
}
