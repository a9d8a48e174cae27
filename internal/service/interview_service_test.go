package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlangGY/dream-catcher-server/internal/model"
	"github.com/AlangGY/dream-catcher-server/internal/repository"
)

func newInterviewService(t *testing.T) (*InterviewService, *repository.InterviewRepository, *fakeChatClient) {
	t.Helper()
	db := newTestDB(t)
	repo := repository.NewInterviewRepository(db)
	fake := &fakeChatClient{}
	return NewInterviewService(repo, fake), repo, fake
}

func TestStartInterview(t *testing.T) {
	svc, repo, fake := newInterviewService(t)
	ctx := context.Background()

	data, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", data.UserID)
	assert.Equal(t, model.InterviewStatusInProgress, data.Status)
	assert.Nil(t, data.EndedAt)
	assert.Nil(t, data.Result)

	// 开场只有一条 AI 消息，顺序从 1 开始
	require.Len(t, data.Messages, 1)
	assert.Equal(t, 1, data.Messages[0].Order)
	assert.Equal(t, model.SpeakerAI, data.Messages[0].Speaker)
	assert.NotEmpty(t, data.Messages[0].Message)

	// 续接令牌已保存
	session, err := repo.GetSessionByID(ctx, data.ID)
	require.NoError(t, err)
	require.NotNil(t, session.PreviousResponseID)
	assert.Equal(t, "resp-1", *session.PreviousResponseID)
	assert.Equal(t, interviewOpeningInput, fake.lastInput)
}

func TestStartInterview_ChatFailureRollsBack(t *testing.T) {
	svc, repo, fake := newInterviewService(t)
	ctx := context.Background()
	fake.failChat = true

	_, err := svc.StartInterview(ctx, "user-1")
	require.ErrorIs(t, err, ErrUpstreamFailure)

	// 事务回滚后不应留下空会话
	_, total, err := repo.GetSessionsByUserWithPagination(ctx, "user-1", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAnswerInterview(t *testing.T) {
	svc, repo, fake := newInterviewService(t)
	ctx := context.Background()

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	data, err := svc.AnswerInterview(ctx, started.ID, model.SpeakerUser, "我梦见自己在飞。")
	require.NoError(t, err)

	// 一轮应答追加两条消息，顺序连续无空洞
	require.Len(t, data.Messages, 3)
	assert.Equal(t, 2, data.Messages[1].Order)
	assert.Equal(t, model.SpeakerUser, data.Messages[1].Speaker)
	assert.Equal(t, "我梦见自己在飞。", data.Messages[1].Message)
	assert.Equal(t, 3, data.Messages[2].Order)
	assert.Equal(t, model.SpeakerAI, data.Messages[2].Speaker)

	// AI 调用携带上一轮的续接令牌，令牌随后更新
	assert.Equal(t, "resp-1", fake.lastPreviousID)
	session, err := repo.GetSessionByID(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, "resp-2", *session.PreviousResponseID)
}

func TestAnswerInterview_Validation(t *testing.T) {
	svc, _, _ := newInterviewService(t)
	ctx := context.Background()

	_, err := svc.AnswerInterview(ctx, "any", model.SpeakerUser, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.AnswerInterview(ctx, "any", "ROBOT", "正常内容")
	assert.ErrorIs(t, err, ErrInvalidSpeaker)
}

func TestAnswerInterview_NotFound(t *testing.T) {
	svc, _, _ := newInterviewService(t)

	_, err := svc.AnswerInterview(context.Background(), "missing-id", model.SpeakerUser, "内容")
	assert.ErrorIs(t, err, ErrInterviewNotFound)
}

func TestAnswerInterview_NotInProgress(t *testing.T) {
	svc, _, _ := newInterviewService(t)
	ctx := context.Background()

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)
	_, err = svc.CancelInterview(ctx, started.ID)
	require.NoError(t, err)

	_, err = svc.AnswerInterview(ctx, started.ID, model.SpeakerUser, "还在吗")
	assert.ErrorIs(t, err, ErrInterviewNotInProgress)

	// 消息列表保持不变
	data, err := svc.GetInterviewByID(ctx, "user-1", started.ID)
	require.NoError(t, err)
	assert.Len(t, data.Messages, 1)
}

func TestAnswerInterview_ChatFailureRollsBack(t *testing.T) {
	svc, repo, fake := newInterviewService(t)
	ctx := context.Background()

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	fake.failChat = true
	_, err = svc.AnswerInterview(ctx, started.ID, model.SpeakerUser, "我梦见大海。")
	require.ErrorIs(t, err, ErrUpstreamFailure)

	// 用户消息随事务一起回滚，令牌保持上一轮的值
	session, err := repo.GetSessionByID(ctx, started.ID)
	require.NoError(t, err)
	assert.Len(t, session.Messages, 1)
	assert.Equal(t, "resp-1", *session.PreviousResponseID)
	assert.Equal(t, model.InterviewStatusInProgress, session.Status)
}

func TestEndInterview(t *testing.T) {
	svc, _, fake := newInterviewService(t)
	ctx := context.Background()
	fake.summary = "梦的主题是追寻。"

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	data, err := svc.EndInterview(ctx, started.ID)
	require.NoError(t, err)

	assert.Equal(t, model.InterviewStatusCompleted, data.Status)
	require.NotNil(t, data.EndedAt)
	require.NotNil(t, data.Result)
	assert.Equal(t, "梦的主题是追寻。", *data.Result)
}

func TestEndInterview_Idempotent(t *testing.T) {
	svc, _, fake := newInterviewService(t)
	ctx := context.Background()
	fake.summary = "第一次的摘要"

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	first, err := svc.EndInterview(ctx, started.ID)
	require.NoError(t, err)

	// 再次结束不报错、不改变结果
	fake.summary = "不应出现的摘要"
	second, err := svc.EndInterview(ctx, started.ID)
	require.NoError(t, err)

	assert.Equal(t, *first.Result, *second.Result)
	assert.Equal(t, first.EndedAt.Unix(), second.EndedAt.Unix())
	assert.Len(t, second.Messages, len(first.Messages))
}

func TestEndInterview_Cancelled(t *testing.T) {
	svc, _, _ := newInterviewService(t)
	ctx := context.Background()

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)
	_, err = svc.CancelInterview(ctx, started.ID)
	require.NoError(t, err)

	_, err = svc.EndInterview(ctx, started.ID)
	assert.ErrorIs(t, err, ErrInterviewNotInProgress)
}

func TestEndInterview_NotFound(t *testing.T) {
	svc, _, _ := newInterviewService(t)

	_, err := svc.EndInterview(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrInterviewNotFound)
}

func TestEndInterview_SummaryFailureUsesFallback(t *testing.T) {
	svc, _, fake := newInterviewService(t)
	ctx := context.Background()
	fake.failSummary = true

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	data, err := svc.EndInterview(ctx, started.ID)
	require.NoError(t, err)

	// 摘要失败不阻塞结束，会话落为 COMPLETED 并写入兜底结果
	assert.Equal(t, model.InterviewStatusCompleted, data.Status)
	require.NotNil(t, data.Result)
	assert.Equal(t, interviewFallbackResult, *data.Result)
}

func TestCancelInterview(t *testing.T) {
	svc, _, _ := newInterviewService(t)
	ctx := context.Background()

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	data, err := svc.CancelInterview(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InterviewStatusCancelled, data.Status)
	require.NotNil(t, data.EndedAt)
	assert.Nil(t, data.Result)

	// 终态不允许再取消
	_, err = svc.CancelInterview(ctx, started.ID)
	assert.ErrorIs(t, err, ErrInterviewNotInProgress)
}

func TestGetInterviewHistory_Pagination(t *testing.T) {
	svc, _, _ := newInterviewService(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := svc.StartInterview(ctx, "user-1")
		require.NoError(t, err)
	}
	// 其他用户的会话不会混入
	_, err := svc.StartInterview(ctx, "user-2")
	require.NoError(t, err)

	page1, err := svc.GetInterviewHistory(ctx, "user-1", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 10)
	assert.EqualValues(t, 15, page1.Total)

	page2, err := svc.GetInterviewHistory(ctx, "user-1", 2, 10)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 5)
	assert.EqualValues(t, 15, page2.Total)
	assert.Equal(t, 2, page2.Page)

	// 列表项带最后一条消息
	require.NotNil(t, page1.Items[0].LastMessage)
	assert.Equal(t, model.SpeakerAI, page1.Items[0].LastMessage.Speaker)
}

func TestGetInterviewHistory_OrderedByStartedAtDesc(t *testing.T) {
	svc, repo, _ := newInterviewService(t)
	ctx := context.Background()

	// 打乱开始时间后写入，列表应按开始时间倒序返回
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for _, offset := range []int{3, 1, 4, 0, 2} {
		started, err := svc.StartInterview(ctx, "user-1")
		require.NoError(t, err)
		require.NoError(t, repo.UpdateSession(ctx, started.ID, map[string]interface{}{
			"started_at": base.Add(time.Duration(offset) * time.Hour),
		}))
	}

	list, err := svc.GetInterviewHistory(ctx, "user-1", 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Items, 5)
	for i := 1; i < len(list.Items); i++ {
		assert.False(t, list.Items[i].StartedAt.After(list.Items[i-1].StartedAt),
			"第 %d 项的开始时间晚于前一项", i)
	}
	assert.Equal(t, base.Add(4*time.Hour).Unix(), list.Items[0].StartedAt.Unix())
	assert.Equal(t, base.Unix(), list.Items[4].StartedAt.Unix())
}

func TestGetInterviewHistory_InvalidParamsNormalized(t *testing.T) {
	svc, _, _ := newInterviewService(t)
	ctx := context.Background()

	list, err := svc.GetInterviewHistory(ctx, "user-1", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 10, list.Limit)
	assert.Empty(t, list.Items)
}

func TestGetInterviewByID_Ownership(t *testing.T) {
	svc, _, _ := newInterviewService(t)
	ctx := context.Background()

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	_, err = svc.GetInterviewByID(ctx, "user-2", started.ID)
	assert.ErrorIs(t, err, ErrNoPermission)

	// 不存在的会话优先报不存在，而不是权限错误
	_, err = svc.GetInterviewByID(ctx, "user-2", "missing-id")
	assert.ErrorIs(t, err, ErrInterviewNotFound)

	data, err := svc.GetInterviewByID(ctx, "user-1", started.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, data.ID)
}

func TestInterview_FullScenario(t *testing.T) {
	svc, _, fake := newInterviewService(t)
	ctx := context.Background()
	fake.summary = "一场关于考试的焦虑梦。"

	started, err := svc.StartInterview(ctx, "user-1")
	require.NoError(t, err)

	answers := []string{
		"我梦见自己回到了考场。",
		"试卷上的字全都看不清。",
		"醒来的时候心跳很快。",
	}
	var data *InterviewData
	for _, answer := range answers {
		data, err = svc.AnswerInterview(ctx, started.ID, model.SpeakerUser, answer)
		require.NoError(t, err)
	}

	data, err = svc.EndInterview(ctx, started.ID)
	require.NoError(t, err)

	// 1 条开场 + 3 轮 × 2 条，顺序 1..7 连续且发言方交替
	require.Len(t, data.Messages, 7)
	for i, message := range data.Messages {
		assert.Equal(t, i+1, message.Order, fmt.Sprintf("第 %d 条消息顺序不连续", i+1))
		if i%2 == 0 {
			assert.Equal(t, model.SpeakerAI, message.Speaker)
		} else {
			assert.Equal(t, model.SpeakerUser, message.Speaker)
		}
	}

	assert.Equal(t, model.InterviewStatusCompleted, data.Status)
	assert.Equal(t, "一场关于考试的焦虑梦。", *data.Result)
}
