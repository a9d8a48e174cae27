// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AlangGY/dream-catcher-server/internal/model"
)

// InterviewRepository 梦境访谈数据访问层
// 负责访谈会话及其消息的所有数据库操作
// 会话和消息的组合写入必须通过 Transaction 完成
type InterviewRepository struct {
	db *gorm.DB
}

// NewInterviewRepository 创建 InterviewRepository 实例
func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库副本
func (r *InterviewRepository) WithTx(tx *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db: tx}
}

// Transaction 在单个数据库事务中执行 fn
// fn 内通过参数拿到绑定事务的仓库，任一错误触发整体回滚
// 会话创建/消息追加/令牌更新必须组成同一事务，避免出现
// 用户消息已落库而 AI 回复缺失的中间状态
func (r *InterviewRepository) Transaction(ctx context.Context, fn func(txRepo *InterviewRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// CreateSession 创建新的访谈会话
// 初始状态为 IN_PROGRESS，消息列表为空
func (r *InterviewRepository) CreateSession(ctx context.Context, userID string) (*model.InterviewSession, error) {
	session := &model.InterviewSession{
		UserID: userID,
		Status: model.InterviewStatusInProgress,
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// GetSessionByID 根据 ID 获取访谈会话及其全部消息
// 消息按 message_order 正序预加载，调用方不再排序
// 返回:
//   - *model.InterviewSession: 会话对象，未找到返回 nil
//   - error: 数据库错误
func (r *InterviewRepository) GetSessionByID(ctx context.Context, id string) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("message_order ASC")
		}).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionForUpdate 在事务内按 ID 锁定并获取会话
// PostgreSQL 上使用 SELECT ... FOR UPDATE 对同一会话的并发
// answer 调用做串行化，保证消息顺序连续无空洞
// SQLite（测试）依赖其事务本身的串行语义，不加锁子句
func (r *InterviewRepository) GetSessionForUpdate(ctx context.Context, id string) (*model.InterviewSession, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var session model.InterviewSession
	err := query.Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionsByUserWithPagination 分页获取用户的访谈会话
// 按开始时间倒序，预加载消息用于提取最后一条
// 参数:
//   - ctx: 上下文
//   - userID: 用户ID
//   - page: 页码，从 1 开始
//   - limit: 每页数量
//
// 返回:
//   - []model.InterviewSession: 会话列表
//   - int64: 总数量
//   - error: 数据库错误
func (r *InterviewRepository) GetSessionsByUserWithPagination(ctx context.Context, userID string, page, limit int) ([]model.InterviewSession, int64, error) {
	var sessions []model.InterviewSession
	var total int64

	query := r.db.WithContext(ctx).Model(&model.InterviewSession{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("message_order ASC")
		}).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&sessions).Error

	return sessions, total, err
}

// UpdateSession 更新会话的指定字段
// fields 只包含需要变更的列
func (r *InterviewRepository) UpdateSession(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.InterviewSession{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// CountMessages 统计会话内的消息数量
// 在事务内调用，用于计算下一条消息的顺序号
func (r *InterviewRepository) CountMessages(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.InterviewMessage{}).
		Where("interview_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

// CreateMessage 追加一条访谈消息
// 消息只追加不修改
func (r *InterviewRepository) CreateMessage(ctx context.Context, sessionID string, order int, speaker, text string) (*model.InterviewMessage, error) {
	message := &model.InterviewMessage{
		InterviewID: sessionID,
		Order:       order,
		Speaker:     speaker,
		Message:     text,
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// DeleteSession 删除会话及其全部消息
// 会话独占其消息：删除在同一事务中先清消息再清会话，
// 不依赖数据库的隐式级联
func (r *InterviewRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("interview_id = ?", id).Delete(&model.InterviewMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.InterviewSession{}).Error
	})
}
