// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthProviderType OAuth 提供方类型常量
const (
	OAuthProviderKakao = "KAKAO" // Kakao 登录
)

// OAuthProvider OAuth 提供方模型
// 对应数据库表 oauth_providers
// 每种第三方登录方式一条记录，保存其客户端配置
type OAuthProvider struct {
	// ID 自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// Name 提供方名称，全局唯一
	// 目前仅支持 KAKAO
	Name string `gorm:"size:20;uniqueIndex;not null" json:"name"`

	// ClientID OAuth 客户端 ID
	ClientID string `gorm:"size:100;not null" json:"-"`

	// ClientSecret OAuth 客户端密钥，可选
	ClientSecret *string `gorm:"size:100" json:"-"`

	// RedirectURI 授权回调地址
	RedirectURI string `gorm:"size:500;not null" json:"-"`

	// CreatedAt 创建时间
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt 更新时间
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Credentials 该提供方下的所有授权凭据（一对多关系）
	Credentials []OAuthCredential `gorm:"foreignKey:ProviderID" json:"-"`
}

// TableName 指定表名
func (OAuthProvider) TableName() string {
	return "oauth_providers"
}

// OAuthCredential OAuth 授权凭据模型
// 对应数据库表 oauth_credentials
// 将第三方账号（ProviderUserID）与本地用户绑定
type OAuthCredential struct {
	// ID UUID 主键
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// ProviderUserID 第三方平台上的用户 ID
	ProviderUserID string `gorm:"size:100;index;not null" json:"provider_user_id"`

	// UserID 本地用户 ID，外键关联 users.id
	UserID string `gorm:"type:uuid;index;not null" json:"user_id"`

	// ProviderID 提供方 ID，外键关联 oauth_providers.id
	ProviderID int64 `gorm:"index;not null" json:"provider_id"`

	// AccessToken 第三方下发的访问令牌
	AccessToken *string `gorm:"size:500" json:"-"`

	// RefreshToken 第三方下发的刷新令牌
	RefreshToken *string `gorm:"size:500" json:"-"`

	// CreatedAt 创建时间
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt 更新时间
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// User 绑定的本地用户（多对一关系）
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Provider 所属提供方（多对一关系）
	Provider *OAuthProvider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

// TableName 指定表名
func (OAuthCredential) TableName() string {
	return "oauth_credentials"
}

// BeforeCreate 创建前填充 UUID 主键
func (c *OAuthCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
