package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/AlangGY/dream-catcher-server/internal/middleware"
	"github.com/AlangGY/dream-catcher-server/internal/service"
	"github.com/AlangGY/dream-catcher-server/pkg/response"
)

// InterviewHandler 梦境访谈请求处理器
type InterviewHandler struct {
	interviewService *service.InterviewService
}

// NewInterviewHandler 创建 InterviewHandler 实例
func NewInterviewHandler(interviewService *service.InterviewService) *InterviewHandler {
	return &InterviewHandler{
		interviewService: interviewService,
	}
}

// Start 开始新的访谈
// @Summary 开始梦境访谈
// @Description 创建访谈会话并返回 AI 的开场白
// @Tags 访谈
// @Security Bearer
// @Produce json
// @Success 201 {object} response.Response{data=service.InterviewData}
// @Router /v1/dreams/interview/start [post]
func (h *InterviewHandler) Start(c *gin.Context) {
	userID := middleware.GetUserID(c)

	interview, err := h.interviewService.StartInterview(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUpstreamFailure) {
			response.UpstreamFailure(c)
			return
		}
		response.InternalError(c, "开始访谈失败")
		return
	}

	response.Created(c, interview)
}

// answerRequest 访谈应答请求
type answerRequest struct {
	InterviewID string `json:"interview_id" binding:"required"`
	Speaker     string `json:"speaker" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// Answer 向进行中的访谈追加一轮对话
// @Summary 回答访谈问题
// @Description 追加用户消息并返回 AI 的下一个问题
// @Tags 访谈
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body answerRequest true "应答内容"
// @Success 200 {object} response.Response{data=service.InterviewData}
// @Router /v1/dreams/interview/answer [post]
func (h *InterviewHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	interview, err := h.interviewService.AnswerInterview(c.Request.Context(), req.InterviewID, req.Speaker, req.Message)
	if err != nil {
		h.handleInterviewError(c, err, "回答访谈失败")
		return
	}

	response.Success(c, interview)
}

// endRequest 结束访谈请求
type endRequest struct {
	InterviewID string `json:"interview_id" binding:"required"`
}

// End 结束访谈
// @Summary 结束访谈并生成结果摘要
// @Description 对已结束的访谈重复调用直接返回当前结果
// @Tags 访谈
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body endRequest true "访谈 ID"
// @Success 200 {object} response.Response{data=service.InterviewData}
// @Router /v1/dreams/interview/end [post]
func (h *InterviewHandler) End(c *gin.Context) {
	var req endRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	interview, err := h.interviewService.EndInterview(c.Request.Context(), req.InterviewID)
	if err != nil {
		h.handleInterviewError(c, err, "结束访谈失败")
		return
	}

	response.Success(c, interview)
}

// Cancel 取消访谈
// @Summary 取消进行中的访谈
// @Tags 访谈
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body endRequest true "访谈 ID"
// @Success 200 {object} response.Response{data=service.InterviewData}
// @Router /v1/dreams/interview/cancel [post]
func (h *InterviewHandler) Cancel(c *gin.Context) {
	var req endRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	interview, err := h.interviewService.CancelInterview(c.Request.Context(), req.InterviewID)
	if err != nil {
		h.handleInterviewError(c, err, "取消访谈失败")
		return
	}

	response.Success(c, interview)
}

// History 分页获取访谈列表
// @Summary 获取当前用户的访谈历史
// @Tags 访谈
// @Security Bearer
// @Produce json
// @Param page query int false "页码，默认 1"
// @Param limit query int false "每页条数，默认 10"
// @Success 200 {object} response.Response{data=service.InterviewList}
// @Router /v1/dreams/interview [get]
func (h *InterviewHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := paginationParams(c)

	list, err := h.interviewService.GetInterviewHistory(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.InternalError(c, "获取访谈历史失败")
		return
	}

	response.Success(c, list)
}

// GetByID 获取访谈详情
// @Summary 获取访谈详情
// @Description 包含按顺序排列的全部对话消息
// @Tags 访谈
// @Security Bearer
// @Produce json
// @Param id path string true "访谈 ID"
// @Success 200 {object} response.Response{data=service.InterviewData}
// @Router /v1/dreams/interview/{id} [get]
func (h *InterviewHandler) GetByID(c *gin.Context) {
	userID := middleware.GetUserID(c)
	interviewID := c.Param("id")

	interview, err := h.interviewService.GetInterviewByID(c.Request.Context(), userID, interviewID)
	if err != nil {
		h.handleInterviewError(c, err, "获取访谈详情失败")
		return
	}

	response.Success(c, interview)
}

// handleInterviewError 统一处理访谈服务的业务错误
func (h *InterviewHandler) handleInterviewError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInterviewNotFound):
		response.InterviewNotFound(c)
	case errors.Is(err, service.ErrInterviewNotInProgress):
		response.InterviewNotInProgress(c)
	case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrInvalidSpeaker):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, "没有访问权限")
	case errors.Is(err, service.ErrUpstreamFailure):
		response.UpstreamFailure(c)
	default:
		response.InternalError(c, fallback)
	}
}
