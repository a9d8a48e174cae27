// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/AlangGY/dream-catcher-server/internal/model"
)

// OAuthRepository OAuth 数据访问层
// 负责提供方配置和授权凭据的数据库操作
type OAuthRepository struct {
	db *gorm.DB
}

// NewOAuthRepository 创建 OAuthRepository 实例
func NewOAuthRepository(db *gorm.DB) *OAuthRepository {
	return &OAuthRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *OAuthRepository) WithTx(tx *gorm.DB) *OAuthRepository {
	return &OAuthRepository{db: tx}
}

// Transaction 在单个数据库事务中执行 fn
// 回调拿到事务句柄后可以把多个仓库绑定到同一事务，
// 任一错误触发整体回滚
func (r *OAuthRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// GetProviderByName 根据名称获取 OAuth 提供方
// 返回:
//   - *model.OAuthProvider: 提供方配置，未找到返回 nil
//   - error: 数据库错误
func (r *OAuthRepository) GetProviderByName(ctx context.Context, name string) (*model.OAuthProvider, error) {
	var provider model.OAuthProvider
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}

// EnsureProvider 创建或更新 OAuth 提供方配置
// 服务启动时根据配置文件调用，保证数据库中存在对应记录
func (r *OAuthRepository) EnsureProvider(ctx context.Context, provider *model.OAuthProvider) error {
	existing, err := r.GetProviderByName(ctx, provider.Name)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(provider).Error
	}

	provider.ID = existing.ID
	return r.db.WithContext(ctx).Model(existing).Updates(map[string]interface{}{
		"client_id":     provider.ClientID,
		"client_secret": provider.ClientSecret,
		"redirect_uri":  provider.RedirectURI,
	}).Error
}

// GetCredential 根据第三方用户 ID 和提供方获取授权凭据
// 预加载绑定的本地用户
// 返回:
//   - *model.OAuthCredential: 凭据对象，未找到返回 nil
//   - error: 数据库错误
func (r *OAuthRepository) GetCredential(ctx context.Context, providerUserID string, providerID int64) (*model.OAuthCredential, error) {
	var credential model.OAuthCredential
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("provider_user_id = ? AND provider_id = ?", providerUserID, providerID).
		First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &credential, nil
}

// CreateCredential 创建授权凭据
func (r *OAuthRepository) CreateCredential(ctx context.Context, credential *model.OAuthCredential) error {
	return r.db.WithContext(ctx).Create(credential).Error
}

// UpdateCredentialTokens 更新凭据中保存的第三方令牌
func (r *OAuthRepository) UpdateCredentialTokens(ctx context.Context, id string, accessToken, refreshToken string) error {
	return r.db.WithContext(ctx).
		Model(&model.OAuthCredential{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		}).Error
}
