// Package model 定义了与数据库表对应的数据结构
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DreamAnalysis 梦境分析结果
// 由 AI 生成后以 JSON 形式存储在 dreams.analysis 列
type DreamAnalysis struct {
	// Keywords 关键词列表
	Keywords []string `json:"keywords"`

	// Clarity 梦的清晰度，1-5 分
	Clarity int `json:"clarity"`

	// Vividness 梦的鲜明度，1-5 分
	Vividness int `json:"vividness"`

	// Interpretation 梦境解读
	Interpretation string `json:"interpretation"`
}

// Dream 梦境记录模型
// 对应数据库表 dreams
// 一条记录代表用户某一天的一篇梦境日记
type Dream struct {
	// ID 记录唯一标识，UUID 主键
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// UserID 所属用户 ID，外键关联 users.id
	UserID string `gorm:"type:uuid;index;not null" json:"user_id"`

	// Date 做梦的日期，格式 YYYY-MM-DD
	Date string `gorm:"size:10;not null;index" json:"date"`

	// Title 梦的标题
	Title string `gorm:"size:200;not null" json:"title"`

	// Content 梦的内容
	Content string `gorm:"type:text;not null" json:"content"`

	// Mood 做梦时的情绪状态
	Mood string `gorm:"size:50;not null" json:"mood"`

	// Color 梦的代表色，hex 格式，如 #000000
	Color string `gorm:"size:10;not null" json:"color"`

	// AnalysisJSON AI 分析结果，JSON 序列化后存储
	// 未分析时为 NULL，通过 Analysis/SetAnalysis 读写
	AnalysisJSON []byte `gorm:"column:analysis;type:jsonb" json:"-"`

	// CreatedAt 创建时间
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt 更新时间
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// User 所属用户（多对一关系）
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Dream) TableName() string {
	return "dreams"
}

// BeforeCreate 创建前填充 UUID 主键
func (d *Dream) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Analysis 反序列化存储的分析结果
// 未分析时返回 nil
func (d *Dream) Analysis() *DreamAnalysis {
	if len(d.AnalysisJSON) == 0 {
		return nil
	}
	var analysis DreamAnalysis
	if err := json.Unmarshal(d.AnalysisJSON, &analysis); err != nil {
		return nil
	}
	return &analysis
}

// SetAnalysis 序列化并写入分析结果
func (d *Dream) SetAnalysis(analysis *DreamAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	d.AnalysisJSON = data
	return nil
}
