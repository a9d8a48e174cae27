// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/AlangGY/dream-catcher-server/internal/model"
)

// DreamRepository 梦境记录数据访问层
// 负责梦境日记相关的所有数据库操作
type DreamRepository struct {
	db *gorm.DB
}

// NewDreamRepository 创建 DreamRepository 实例
func NewDreamRepository(db *gorm.DB) *DreamRepository {
	return &DreamRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *DreamRepository) WithTx(tx *gorm.DB) *DreamRepository {
	return &DreamRepository{db: tx}
}

// Transaction 在单个数据库事务中执行 fn
func (r *DreamRepository) Transaction(ctx context.Context, fn func(txRepo *DreamRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Create 创建新的梦境记录
// ID 和时间字段会被自动填充
func (r *DreamRepository) Create(ctx context.Context, dream *model.Dream) error {
	return r.db.WithContext(ctx).Create(dream).Error
}

// GetByID 根据 ID 获取梦境记录
// 返回:
//   - *model.Dream: 记录对象，未找到返回 nil
//   - error: 数据库错误
func (r *DreamRepository) GetByID(ctx context.Context, id string) (*model.Dream, error) {
	var dream model.Dream
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dream).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dream, nil
}

// GetByUserWithPagination 分页获取用户的梦境记录
// 按做梦日期倒序排列
// 参数:
//   - ctx: 上下文
//   - userID: 用户ID
//   - page: 页码，从 1 开始
//   - limit: 每页数量
//
// 返回:
//   - []model.Dream: 记录列表
//   - int64: 总数量（用于计算总页数）
//   - error: 数据库错误
func (r *DreamRepository) GetByUserWithPagination(ctx context.Context, userID string, page, limit int) ([]model.Dream, int64, error) {
	var dreams []model.Dream
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Dream{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.
		Order("date DESC").
		Offset(offset).
		Limit(limit).
		Find(&dreams).Error

	return dreams, total, err
}

// Update 更新梦境记录的可编辑字段
func (r *DreamRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Dream{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// UpdateAnalysis 写入 AI 分析结果
func (r *DreamRepository) UpdateAnalysis(ctx context.Context, id string, analysisJSON []byte) error {
	return r.db.WithContext(ctx).
		Model(&model.Dream{}).
		Where("id = ?", id).
		Update("analysis", analysisJSON).Error
}

// Delete 删除梦境记录
func (r *DreamRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Dream{}).Error
}
