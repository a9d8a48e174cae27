package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AlangGY/dream-catcher-server/internal/model"
	"github.com/AlangGY/dream-catcher-server/internal/repository"
)

// 梦境服务相关错误
var (
	ErrDreamNotFound = errors.New("梦境记录不存在")
	ErrNoPermission  = errors.New("没有访问权限")
)

// DreamService 梦境日记服务
type DreamService struct {
	dreamRepo  *repository.DreamRepository
	chatClient ChatClient
}

// NewDreamService 创建 DreamService 实例
func NewDreamService(dreamRepo *repository.DreamRepository, chatClient ChatClient) *DreamService {
	return &DreamService{
		dreamRepo:  dreamRepo,
		chatClient: chatClient,
	}
}

// CreateDreamRequest 创建梦境请求
type CreateDreamRequest struct {
	Date    string `json:"date" binding:"required"` // YYYY-MM-DD
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Mood    string `json:"mood"`
	Color   string `json:"color"`
}

// UpdateDreamRequest 更新梦境请求，字段均可选
type UpdateDreamRequest struct {
	Date    *string `json:"date"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Mood    *string `json:"mood"`
	Color   *string `json:"color"`
}

// DreamData 梦境视图
type DreamData struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	Date      string                `json:"date"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	Mood      string                `json:"mood,omitempty"`
	Color     string                `json:"color,omitempty"`
	Analysis  *model.DreamAnalysis  `json:"analysis,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// DreamPagination 分页信息
type DreamPagination struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
}

// DreamList 梦境列表响应
type DreamList struct {
	Dreams     []DreamData     `json:"dreams"`
	Pagination DreamPagination `json:"pagination"`
}

// CreateDream 创建梦境记录
func (s *DreamService) CreateDream(ctx context.Context, userID string, req *CreateDreamRequest) (*DreamData, error) {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, fmt.Errorf("日期格式无效: %v", err)
	}

	dream := &model.Dream{
		UserID:  userID,
		Date:    req.Date,
		Title:   req.Title,
		Content: req.Content,
		Mood:    req.Mood,
		Color:   req.Color,
	}
	if err := s.dreamRepo.Create(ctx, dream); err != nil {
		return nil, err
	}

	return toDreamData(dream), nil
}

// GetDream 获取单条梦境记录
// 先判断记录是否存在，再按所有者校验权限
func (s *DreamService) GetDream(ctx context.Context, userID, dreamID string) (*DreamData, error) {
	dream, err := s.getOwnedDream(ctx, userID, dreamID)
	if err != nil {
		return nil, err
	}
	return toDreamData(dream), nil
}

// GetDreams 分页获取用户的梦境列表，按日期倒序
func (s *DreamService) GetDreams(ctx context.Context, userID string, page, limit int) (*DreamList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	dreams, total, err := s.dreamRepo.GetByUserWithPagination(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	items := make([]DreamData, 0, len(dreams))
	for i := range dreams {
		items = append(items, *toDreamData(&dreams[i]))
	}

	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return &DreamList{
		Dreams: items,
		Pagination: DreamPagination{
			TotalItems:  total,
			TotalPages:  totalPages,
			CurrentPage: page,
		},
	}, nil
}

// UpdateDream 更新梦境记录，只写入请求中出现的字段
func (s *DreamService) UpdateDream(ctx context.Context, userID, dreamID string, req *UpdateDreamRequest) (*DreamData, error) {
	if _, err := s.getOwnedDream(ctx, userID, dreamID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Date != nil {
		if _, err := time.Parse("2006-01-02", *req.Date); err != nil {
			return nil, fmt.Errorf("日期格式无效: %v", err)
		}
		fields["date"] = *req.Date
	}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}
	if req.Mood != nil {
		fields["mood"] = *req.Mood
	}
	if req.Color != nil {
		fields["color"] = *req.Color
	}

	if len(fields) > 0 {
		if err := s.dreamRepo.Update(ctx, dreamID, fields); err != nil {
			return nil, err
		}
	}

	dream, err := s.dreamRepo.GetByID(ctx, dreamID)
	if err != nil {
		return nil, err
	}
	return toDreamData(dream), nil
}

// DeleteDream 删除梦境记录
func (s *DreamService) DeleteDream(ctx context.Context, userID, dreamID string) error {
	if _, err := s.getOwnedDream(ctx, userID, dreamID); err != nil {
		return err
	}
	return s.dreamRepo.Delete(ctx, dreamID)
}

// AnalyzeDream 请求 AI 分析梦境并保存结果
// 重复调用会覆盖旧的分析结果
func (s *DreamService) AnalyzeDream(ctx context.Context, userID, dreamID string) (*DreamData, error) {
	dream, err := s.getOwnedDream(ctx, userID, dreamID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.chatClient.AnalyzeDream(ctx, dream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	if err := dream.SetAnalysis(analysis); err != nil {
		return nil, err
	}
	if err := s.dreamRepo.UpdateAnalysis(ctx, dreamID, dream.AnalysisJSON); err != nil {
		return nil, err
	}

	return toDreamData(dream), nil
}

// getOwnedDream 加载记录并校验所有者
func (s *DreamService) getOwnedDream(ctx context.Context, userID, dreamID string) (*model.Dream, error) {
	dream, err := s.dreamRepo.GetByID(ctx, dreamID)
	if err != nil {
		return nil, err
	}
	if dream == nil {
		return nil, ErrDreamNotFound
	}
	if dream.UserID != userID {
		return nil, ErrNoPermission
	}
	return dream, nil
}

// toDreamData 将梦境模型投影为视图
func toDreamData(dream *model.Dream) *DreamData {
	return &DreamData{
		ID:        dream.ID,
		UserID:    dream.UserID,
		Date:      dream.Date,
		Title:     dream.Title,
		Content:   dream.Content,
		Mood:      dream.Mood,
		Color:     dream.Color,
		Analysis:  dream.Analysis(),
		CreatedAt: dream.CreatedAt,
		UpdatedAt: dream.UpdatedAt,
	}
}
