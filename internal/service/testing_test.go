package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AlangGY/dream-catcher-server/internal/model"
)

// newTestDB 创建独立的内存数据库并完成迁移
// 每个测试用唯一的 DSN，互不干扰
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.OAuthProvider{},
		&model.OAuthCredential{},
		&model.Dream{},
		&model.InterviewSession{},
		&model.InterviewMessage{},
	))
	return db
}

// fakeChatClient 脚本化的 ChatClient 测试替身
// 每次对话返回编号递增的回复和响应 ID
type fakeChatClient struct {
	mu sync.Mutex

	chatCalls    int
	failChat     bool
	failSummary  bool
	failAnalysis bool

	summary  string
	analysis *model.DreamAnalysis

	lastInput      string
	lastPreviousID string
}

func (f *fakeChatClient) ChatForDreamInterview(ctx context.Context, input, previousResponseID string) (*ChatResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failChat {
		return nil, errors.New("模拟的对话失败")
	}
	f.chatCalls++
	f.lastInput = input
	f.lastPreviousID = previousResponseID
	return &ChatResult{
		Output:     fmt.Sprintf("AI 的第 %d 个问题", f.chatCalls),
		ResponseID: fmt.Sprintf("resp-%d", f.chatCalls),
	}, nil
}

func (f *fakeChatClient) SummarizeInterview(ctx context.Context, previousResponseID string) (*ChatResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSummary {
		return nil, errors.New("模拟的摘要失败")
	}
	summary := f.summary
	if summary == "" {
		summary = "访谈摘要"
	}
	return &ChatResult{Output: summary, ResponseID: "resp-summary"}, nil
}

func (f *fakeChatClient) AnalyzeDream(ctx context.Context, dream *model.Dream) (*model.DreamAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAnalysis {
		return nil, errors.New("模拟的分析失败")
	}
	if f.analysis != nil {
		return f.analysis, nil
	}
	return &model.DreamAnalysis{
		Keywords:       []string{"飞行", "坠落"},
		Clarity:        4,
		Vividness:      3,
		Interpretation: "这个梦反映了对失控的担忧。",
	}, nil
}
