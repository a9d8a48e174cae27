// Package service 提供业务逻辑层的实现
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlangGY/dream-catcher-server/internal/model"
	"github.com/AlangGY/dream-catcher-server/internal/repository"
)

// 访谈服务相关错误
var (
	ErrInterviewNotFound      = errors.New("访谈会话不存在")
	ErrInterviewNotInProgress = errors.New("访谈会话不在进行中")
	ErrEmptyMessage           = errors.New("消息内容不能为空")
	ErrInvalidSpeaker         = errors.New("无效的发言方")
	ErrUpstreamFailure        = errors.New("AI 服务调用失败")
)

// 开启访谈时发给 AI 的固定开场输入
const interviewOpeningInput = "我做了一个梦。"

// AI 摘要生成失败时写入的兜底结果
const interviewFallbackResult = "这个梦可能反映了某种不安情绪。"

// InterviewService 梦境访谈服务
// 维护访谈会话的状态机：
//
//	IN_PROGRESS -> {CONVERTING -> COMPLETED} | CANCELLED
//
// 消息顺序、续接令牌和状态转换的持久化都由本服务协调，
// 文本生成委托给注入的 ChatClient
type InterviewService struct {
	interviewRepo *repository.InterviewRepository // 访谈数据访问层
	chatClient    ChatClient                      // AI 对话服务
}

// NewInterviewService 创建 InterviewService 实例
// 依赖全部由构造函数注入，不使用任何全局注册表
func NewInterviewService(interviewRepo *repository.InterviewRepository, chatClient ChatClient) *InterviewService {
	return &InterviewService{
		interviewRepo: interviewRepo,
		chatClient:    chatClient,
	}
}

// InterviewMessageData 访谈消息视图
type InterviewMessageData struct {
	Order   int       `json:"order"`   // 消息顺序，从 1 开始
	Speaker string    `json:"speaker"` // 发言方 USER / AI
	Message string    `json:"message"` // 消息内容
	SentAt  time.Time `json:"sent_at"` // 发送时间
}

// InterviewData 访谈会话视图
type InterviewData struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Status    string                 `json:"status"`
	StartedAt time.Time              `json:"started_at"`
	EndedAt   *time.Time             `json:"ended_at,omitempty"`
	Result    *string                `json:"result,omitempty"`
	Messages  []InterviewMessageData `json:"messages"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// InterviewListItem 访谈列表项
// 列表接口只带最后一条消息，不返回完整对话
type InterviewListItem struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	StartedAt   time.Time             `json:"started_at"`
	EndedAt     *time.Time            `json:"ended_at,omitempty"`
	LastMessage *InterviewMessageData `json:"last_message,omitempty"`
}

// InterviewList 访谈列表响应
type InterviewList struct {
	Items []InterviewListItem `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// StartInterview 开始一次新的访谈
// 创建会话、请求 AI 开场白、写入消息 #1 并保存续接令牌，
// 全部在同一事务中完成：AI 调用失败时会话整体回滚，
// 不会留下没有开场白的空会话
func (s *InterviewService) StartInterview(ctx context.Context, userID string) (*InterviewData, error) {
	var sessionID string

	err := s.interviewRepo.Transaction(ctx, func(txRepo *repository.InterviewRepository) error {
		// 1. 创建会话
		session, err := txRepo.CreateSession(ctx, userID)
		if err != nil {
			return err
		}
		sessionID = session.ID

		// 2. 生成第一条 AI 消息（无续接令牌）
		result, err := s.chatClient.ChatForDreamInterview(ctx, interviewOpeningInput, "")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}

		// 3. 写入消息 #1 并保存续接令牌
		if _, err := txRepo.CreateMessage(ctx, session.ID, 1, model.SpeakerAI, result.Output); err != nil {
			return err
		}
		return txRepo.UpdateSession(ctx, session.ID, map[string]interface{}{
			"previous_response_id": result.ResponseID,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.loadData(ctx, sessionID)
}

// AnswerInterview 向进行中的会话追加一轮对话
// 追加用户消息、请求 AI 回复、追加 AI 消息、更新续接令牌，
// 四步在同一事务中完成。会话行在事务内加锁，并发的
// answer 调用被串行化，保证顺序号连续
func (s *InterviewService) AnswerInterview(ctx context.Context, sessionID, speaker, text string) (*InterviewData, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if !model.ValidSpeaker(speaker) {
		return nil, ErrInvalidSpeaker
	}

	err := s.interviewRepo.Transaction(ctx, func(txRepo *repository.InterviewRepository) error {
		session, err := txRepo.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrInterviewNotFound
		}
		if session.Status != model.InterviewStatusInProgress {
			return ErrInterviewNotInProgress
		}

		count, err := txRepo.CountMessages(ctx, session.ID)
		if err != nil {
			return err
		}
		order := int(count)

		// 1. 追加用户消息
		if _, err := txRepo.CreateMessage(ctx, session.ID, order+1, speaker, text); err != nil {
			return err
		}

		// 2. 用保存的续接令牌请求 AI 回复
		previous := ""
		if session.PreviousResponseID != nil {
			previous = *session.PreviousResponseID
		}
		result, err := s.chatClient.ChatForDreamInterview(ctx, text, previous)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}

		// 3. 追加 AI 消息并更新续接令牌
		if _, err := txRepo.CreateMessage(ctx, session.ID, order+2, model.SpeakerAI, result.Output); err != nil {
			return err
		}
		return txRepo.UpdateSession(ctx, session.ID, map[string]interface{}{
			"previous_response_id": result.ResponseID,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.loadData(ctx, sessionID)
}

// EndInterview 结束访谈并生成结果摘要
// 状态先转入 CONVERTING 占位，摘要生成后落为 COMPLETED。
// 对已 COMPLETED 的会话幂等：直接返回当前视图，不重复转换。
// CANCELLED 和 CONVERTING（另一个结束请求进行中）返回状态错误
func (s *InterviewService) EndInterview(ctx context.Context, sessionID string) (*InterviewData, error) {
	alreadyCompleted := false

	err := s.interviewRepo.Transaction(ctx, func(txRepo *repository.InterviewRepository) error {
		session, err := txRepo.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrInterviewNotFound
		}

		switch session.Status {
		case model.InterviewStatusCompleted:
			alreadyCompleted = true
			return nil
		case model.InterviewStatusInProgress:
			return txRepo.UpdateSession(ctx, session.ID, map[string]interface{}{
				"status": model.InterviewStatusConverting,
			})
		default:
			// CANCELLED 或已在 CONVERTING
			return ErrInterviewNotInProgress
		}
	})
	if err != nil {
		return nil, err
	}
	if alreadyCompleted {
		return s.loadData(ctx, sessionID)
	}

	// 生成摘要。失败时写入兜底结果而不是让会话卡在 CONVERTING
	session, err := s.interviewRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInterviewNotFound
	}
	summary := interviewFallbackResult
	if session.PreviousResponseID != nil {
		if result, err := s.chatClient.SummarizeInterview(ctx, *session.PreviousResponseID); err == nil {
			summary = result.Output
		}
	}

	now := time.Now()
	if err := s.interviewRepo.UpdateSession(ctx, sessionID, map[string]interface{}{
		"status":   model.InterviewStatusCompleted,
		"ended_at": now,
		"result":   summary,
	}); err != nil {
		return nil, err
	}

	return s.loadData(ctx, sessionID)
}

// CancelInterview 取消访谈
// 只允许从非终态取消；已结束或已取消的会话返回状态错误
func (s *InterviewService) CancelInterview(ctx context.Context, sessionID string) (*InterviewData, error) {
	err := s.interviewRepo.Transaction(ctx, func(txRepo *repository.InterviewRepository) error {
		session, err := txRepo.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrInterviewNotFound
		}
		if model.InterviewTerminal(session.Status) {
			return ErrInterviewNotInProgress
		}

		now := time.Now()
		return txRepo.UpdateSession(ctx, session.ID, map[string]interface{}{
			"status":   model.InterviewStatusCancelled,
			"ended_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.loadData(ctx, sessionID)
}

// GetInterviewHistory 分页获取用户的访谈列表
// 按开始时间倒序，每项只带最后一条消息
func (s *InterviewService) GetInterviewHistory(ctx context.Context, userID string, page, limit int) (*InterviewList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	sessions, total, err := s.interviewRepo.GetSessionsByUserWithPagination(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	items := make([]InterviewListItem, len(sessions))
	for i, session := range sessions {
		item := InterviewListItem{
			ID:        session.ID,
			Status:    session.Status,
			StartedAt: session.StartedAt,
			EndedAt:   session.EndedAt,
		}
		if n := len(session.Messages); n > 0 {
			last := toInterviewMessageData(&session.Messages[n-1])
			item.LastMessage = &last
		}
		items[i] = item
	}

	return &InterviewList{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// GetInterviewByID 获取访谈详情
// 先判断会话是否存在，再严格按所有者 ID 校验访问权限
func (s *InterviewService) GetInterviewByID(ctx context.Context, userID, sessionID string) (*InterviewData, error) {
	session, err := s.interviewRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInterviewNotFound
	}
	if session.UserID != userID {
		return nil, ErrNoPermission
	}

	return toInterviewData(session), nil
}

// loadData 重新加载会话并投影为视图
func (s *InterviewService) loadData(ctx context.Context, sessionID string) (*InterviewData, error) {
	session, err := s.interviewRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInterviewNotFound
	}
	return toInterviewData(session), nil
}

// toInterviewData 将会话模型投影为视图
// 纯转换，不排序：仓库保证消息按 order 返回
func toInterviewData(session *model.InterviewSession) *InterviewData {
	messages := make([]InterviewMessageData, len(session.Messages))
	for i := range session.Messages {
		messages[i] = toInterviewMessageData(&session.Messages[i])
	}

	return &InterviewData{
		ID:        session.ID,
		UserID:    session.UserID,
		Status:    session.Status,
		StartedAt: session.StartedAt,
		EndedAt:   session.EndedAt,
		Result:    session.Result,
		Messages:  messages,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

// toInterviewMessageData 将消息模型投影为视图
func toInterviewMessageData(message *model.InterviewMessage) InterviewMessageData {
	return InterviewMessageData{
		Order:   message.Order,
		Speaker: message.Speaker,
		Message: message.Message,
		SentAt:  message.SentAt,
	}
}
