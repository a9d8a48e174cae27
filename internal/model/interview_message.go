// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterviewSpeaker 访谈消息发言方常量
const (
	SpeakerUser = "USER" // 用户发言
	SpeakerAI   = "AI"   // AI 发言
)

// ValidSpeaker 判断发言方取值是否合法
func ValidSpeaker(speaker string) bool {
	return speaker == SpeakerUser || speaker == SpeakerAI
}

// InterviewMessage 访谈消息模型
// 对应数据库表 interview_messages
// 消息只追加不修改，Order 从 1 开始连续递增，反映真实的对话顺序
type InterviewMessage struct {
	// ID 消息唯一标识，UUID 主键
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// InterviewID 所属会话 ID，外键关联 interview_sessions.id
	InterviewID string `gorm:"type:uuid;index;not null" json:"interview_id"`

	// Order 消息在会话内的顺序，从 1 开始，无空洞
	// order 是 SQL 保留字，列名用 message_order
	Order int `gorm:"column:message_order;not null" json:"order"`

	// Speaker 发言方，USER 或 AI
	Speaker string `gorm:"size:10;not null" json:"speaker"`

	// Message 消息内容，非空
	Message string `gorm:"type:text;not null" json:"message"`

	// SentAt 消息发送时间
	SentAt time.Time `gorm:"autoCreateTime" json:"sent_at"`
}

// TableName 指定表名
func (InterviewMessage) TableName() string {
	return "interview_messages"
}

// BeforeCreate 创建前填充 UUID 主键
func (m *InterviewMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
