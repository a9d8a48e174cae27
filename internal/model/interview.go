// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterviewStatus 梦境访谈会话状态常量
const (
	InterviewStatusInProgress = "IN_PROGRESS" // 进行中，可以继续对话
	InterviewStatusConverting = "CONVERTING"  // 收尾中，正在生成结果
	InterviewStatusCompleted  = "COMPLETED"   // 已完成（终态）
	InterviewStatusCancelled  = "CANCELLED"   // 已取消（终态）
)

// InterviewTerminal 判断状态是否为终态
// COMPLETED 和 CANCELLED 之后不再接受任何转换
func InterviewTerminal(status string) bool {
	return status == InterviewStatusCompleted || status == InterviewStatusCancelled
}

// InterviewSession 梦境访谈会话模型
// 对应数据库表 interview_sessions
// 表示用户与 AI 之间的一次完整访谈对话
type InterviewSession struct {
	// ID 会话唯一标识，UUID 主键
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// UserID 会话所有者，创建后不可变更
	UserID string `gorm:"type:uuid;index;not null" json:"user_id"`

	// Status 会话状态
	// IN_PROGRESS -> {CONVERTING -> COMPLETED} | CANCELLED
	Status string `gorm:"size:20;not null;default:IN_PROGRESS;index" json:"status"`

	// StartedAt 会话开始时间
	StartedAt time.Time `gorm:"autoCreateTime;index" json:"started_at"`

	// EndedAt 会话结束时间，离开 IN_PROGRESS 时写入
	EndedAt *time.Time `json:"ended_at,omitempty"`

	// PreviousResponseID AI 服务返回的续接令牌
	// 不透明字符串，仅原样透传，每次生成消息后更新
	// 仅对 IN_PROGRESS 会话有意义
	PreviousResponseID *string `gorm:"size:200" json:"-"`

	// Result 访谈结束后生成的分析结果摘要
	Result *string `gorm:"type:text" json:"result,omitempty"`

	// CreatedAt 创建时间
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt 更新时间
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Messages 会话内的全部消息（一对多关系）
	// 消息归会话独占，删除会话时一并删除
	Messages []InterviewMessage `gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName 指定表名
func (InterviewSession) TableName() string {
	return "interview_sessions"
}

// BeforeCreate 创建前填充 UUID 主键和初始状态
func (s *InterviewSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = InterviewStatusInProgress
	}
	return nil
}
