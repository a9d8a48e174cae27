// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户模型
// 对应数据库表 users
// 存储用户的基本信息，包括本地登录凭据
// OAuth 用户没有密码，通过 OAuthCredential 关联登录
type User struct {
	// ID 用户唯一标识，UUID 主键
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// Email 用户邮箱，用于登录，全局唯一
	Email string `gorm:"size:100;uniqueIndex;not null" json:"email"`

	// PasswordHash 密码的 bcrypt 哈希值
	// OAuth 登录创建的用户此字段为 NULL
	// 永远不要存储明文密码！
	PasswordHash *string `gorm:"size:255" json:"-"`

	// Nickname 昵称，展示用
	Nickname string `gorm:"size:50;not null" json:"nickname"`

	// ProfileImage 头像 URL，可选
	ProfileImage *string `gorm:"size:500" json:"profile_image,omitempty"`

	// CreatedAt 创建时间，由 GORM 自动填充
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt 更新时间，由 GORM 自动更新
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Dreams 用户的梦境记录（一对多关系）
	Dreams []Dream `gorm:"foreignKey:UserID" json:"dreams,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 创建前填充 UUID 主键
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
