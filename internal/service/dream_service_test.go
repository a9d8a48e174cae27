package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlangGY/dream-catcher-server/internal/model"
	"github.com/AlangGY/dream-catcher-server/internal/repository"
	"github.com/AlangGY/dream-catcher-server/pkg/util"
)

func newDreamService(t *testing.T) (*DreamService, *fakeChatClient) {
	t.Helper()
	db := newTestDB(t)
	fake := &fakeChatClient{}
	return NewDreamService(repository.NewDreamRepository(db), fake), fake
}

func createDream(t *testing.T, svc *DreamService, userID, date, title string) *DreamData {
	t.Helper()
	dream, err := svc.CreateDream(context.Background(), userID, &CreateDreamRequest{
		Date:    date,
		Title:   title,
		Content: "梦的内容",
		Mood:    "平静",
		Color:   "#3366ff",
	})
	require.NoError(t, err)
	return dream
}

func TestCreateDream(t *testing.T) {
	svc, _ := newDreamService(t)

	dream := createDream(t, svc, "user-1", "2026-08-29", "海边的梦")

	assert.NotEmpty(t, dream.ID)
	assert.Equal(t, "user-1", dream.UserID)
	assert.Equal(t, "2026-08-29", dream.Date)
	assert.Equal(t, "海边的梦", dream.Title)
	assert.Nil(t, dream.Analysis)
}

func TestCreateDream_InvalidDate(t *testing.T) {
	svc, _ := newDreamService(t)

	_, err := svc.CreateDream(context.Background(), "user-1", &CreateDreamRequest{
		Date:    "08/29/2026",
		Title:   "标题",
		Content: "内容",
	})
	assert.Error(t, err)
}

func TestGetDream_Ownership(t *testing.T) {
	svc, _ := newDreamService(t)
	ctx := context.Background()

	dream := createDream(t, svc, "user-1", "2026-08-29", "海边的梦")

	_, err := svc.GetDream(ctx, "user-2", dream.ID)
	assert.ErrorIs(t, err, ErrNoPermission)

	_, err = svc.GetDream(ctx, "user-1", "missing-id")
	assert.ErrorIs(t, err, ErrDreamNotFound)

	got, err := svc.GetDream(ctx, "user-1", dream.ID)
	require.NoError(t, err)
	assert.Equal(t, dream.ID, got.ID)
}

func TestGetDreams_Pagination(t *testing.T) {
	svc, _ := newDreamService(t)
	ctx := context.Background()

	for day := 1; day <= 12; day++ {
		createDream(t, svc, "user-1", fmt.Sprintf("2026-08-%02d", day), "梦")
	}
	createDream(t, svc, "user-2", "2026-08-01", "别人的梦")

	page1, err := svc.GetDreams(ctx, "user-1", 1, 5)
	require.NoError(t, err)
	assert.Len(t, page1.Dreams, 5)
	assert.EqualValues(t, 12, page1.Pagination.TotalItems)
	assert.Equal(t, 3, page1.Pagination.TotalPages)
	assert.Equal(t, 1, page1.Pagination.CurrentPage)

	// 按日期倒序
	assert.Equal(t, "2026-08-12", page1.Dreams[0].Date)

	page3, err := svc.GetDreams(ctx, "user-1", 3, 5)
	require.NoError(t, err)
	assert.Len(t, page3.Dreams, 2)
}

func TestUpdateDream_PartialFields(t *testing.T) {
	svc, _ := newDreamService(t)
	ctx := context.Background()

	dream := createDream(t, svc, "user-1", "2026-08-29", "原标题")

	updated, err := svc.UpdateDream(ctx, "user-1", dream.ID, &UpdateDreamRequest{
		Title: util.StringPtr("新标题"),
	})
	require.NoError(t, err)

	// 未出现的字段保持原值
	assert.Equal(t, "新标题", updated.Title)
	assert.Equal(t, dream.Content, updated.Content)
	assert.Equal(t, dream.Date, updated.Date)

	_, err = svc.UpdateDream(ctx, "user-2", dream.ID, &UpdateDreamRequest{
		Title: util.StringPtr("越权标题"),
	})
	assert.ErrorIs(t, err, ErrNoPermission)
}

func TestDeleteDream(t *testing.T) {
	svc, _ := newDreamService(t)
	ctx := context.Background()

	dream := createDream(t, svc, "user-1", "2026-08-29", "待删除")

	require.NoError(t, svc.DeleteDream(ctx, "user-1", dream.ID))

	_, err := svc.GetDream(ctx, "user-1", dream.ID)
	assert.ErrorIs(t, err, ErrDreamNotFound)

	assert.ErrorIs(t, svc.DeleteDream(ctx, "user-1", dream.ID), ErrDreamNotFound)
}

func TestAnalyzeDream(t *testing.T) {
	svc, fake := newDreamService(t)
	ctx := context.Background()

	dream := createDream(t, svc, "user-1", "2026-08-29", "飞行的梦")

	analyzed, err := svc.AnalyzeDream(ctx, "user-1", dream.ID)
	require.NoError(t, err)
	require.NotNil(t, analyzed.Analysis)
	assert.Equal(t, []string{"飞行", "坠落"}, analyzed.Analysis.Keywords)
	assert.Equal(t, 4, analyzed.Analysis.Clarity)

	// 重复分析覆盖旧结果
	fake.analysis = &model.DreamAnalysis{
		Keywords:       []string{"大海"},
		Clarity:        2,
		Vividness:      5,
		Interpretation: "新的解读。",
	}
	again, err := svc.AnalyzeDream(ctx, "user-1", dream.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"大海"}, again.Analysis.Keywords)

	// 分析结果随记录持久化
	got, err := svc.GetDream(ctx, "user-1", dream.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, "新的解读。", got.Analysis.Interpretation)
}

func TestAnalyzeDream_UpstreamFailure(t *testing.T) {
	svc, fake := newDreamService(t)
	ctx := context.Background()

	dream := createDream(t, svc, "user-1", "2026-08-29", "飞行的梦")
	fake.failAnalysis = true

	_, err := svc.AnalyzeDream(ctx, "user-1", dream.ID)
	assert.ErrorIs(t, err, ErrUpstreamFailure)

	// 失败不写入半截结果
	got, err := svc.GetDream(ctx, "user-1", dream.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Analysis)
}
