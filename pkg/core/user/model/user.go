package model

import (
	"time"

	"gorm.io/gorm"
)

// User 用户身份记录, 注册后不再修改
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Username     string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"` // 登录凭据, 唯一
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName 定义映射表名
func (User) TableName() string {
	return "blog_users"
}

func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "COMMENT='用户基础表'")
	}
	return db.AutoMigrate(&User{})
}
