package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AlangGY/dream-catcher-server/internal/middleware"
	"github.com/AlangGY/dream-catcher-server/internal/service"
	"github.com/AlangGY/dream-catcher-server/pkg/response"
)

// DreamHandler 梦境日记请求处理器
type DreamHandler struct {
	dreamService *service.DreamService
}

// NewDreamHandler 创建 DreamHandler 实例
func NewDreamHandler(dreamService *service.DreamService) *DreamHandler {
	return &DreamHandler{
		dreamService: dreamService,
	}
}

// Create 创建梦境记录
// @Summary 创建梦境记录
// @Tags 梦境
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body service.CreateDreamRequest true "梦境内容"
// @Success 201 {object} response.Response{data=service.DreamData}
// @Router /v1/dreams [post]
func (h *DreamHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.CreateDreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	dream, err := h.dreamService.CreateDream(c.Request.Context(), userID, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Created(c, dream)
}

// List 分页获取梦境列表
// @Summary 获取当前用户的梦境列表
// @Tags 梦境
// @Security Bearer
// @Produce json
// @Param page query int false "页码，默认 1"
// @Param limit query int false "每页条数，默认 10"
// @Success 200 {object} response.Response{data=service.DreamList}
// @Router /v1/dreams [get]
func (h *DreamHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := paginationParams(c)

	list, err := h.dreamService.GetDreams(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.InternalError(c, "获取梦境列表失败")
		return
	}

	response.Success(c, list)
}

// Get 获取单条梦境记录
// @Summary 获取单条梦境记录
// @Tags 梦境
// @Security Bearer
// @Produce json
// @Param id path string true "梦境 ID"
// @Success 200 {object} response.Response{data=service.DreamData}
// @Router /v1/dreams/{id} [get]
func (h *DreamHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	dreamID := c.Param("id")

	dream, err := h.dreamService.GetDream(c.Request.Context(), userID, dreamID)
	if err != nil {
		h.handleDreamError(c, err, "获取梦境记录失败")
		return
	}

	response.Success(c, dream)
}

// Update 更新梦境记录
// @Summary 更新梦境记录
// @Tags 梦境
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "梦境 ID"
// @Param body body service.UpdateDreamRequest true "要更新的字段"
// @Success 200 {object} response.Response{data=service.DreamData}
// @Router /v1/dreams/{id} [put]
func (h *DreamHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	dreamID := c.Param("id")

	var req service.UpdateDreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	dream, err := h.dreamService.UpdateDream(c.Request.Context(), userID, dreamID, &req)
	if err != nil {
		h.handleDreamError(c, err, "更新梦境记录失败")
		return
	}

	response.Success(c, dream)
}

// Delete 删除梦境记录
// @Summary 删除梦境记录
// @Tags 梦境
// @Security Bearer
// @Produce json
// @Param id path string true "梦境 ID"
// @Success 204
// @Router /v1/dreams/{id} [delete]
func (h *DreamHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	dreamID := c.Param("id")

	if err := h.dreamService.DeleteDream(c.Request.Context(), userID, dreamID); err != nil {
		h.handleDreamError(c, err, "删除梦境记录失败")
		return
	}

	response.NoContent(c)
}

// Analyze 请求 AI 分析梦境
// @Summary 分析梦境并保存结果
// @Description 重复调用会覆盖旧的分析结果
// @Tags 梦境
// @Security Bearer
// @Produce json
// @Param id path string true "梦境 ID"
// @Success 200 {object} response.Response{data=service.DreamData}
// @Router /v1/dreams/{id}/analyze [post]
func (h *DreamHandler) Analyze(c *gin.Context) {
	userID := middleware.GetUserID(c)
	dreamID := c.Param("id")

	dream, err := h.dreamService.AnalyzeDream(c.Request.Context(), userID, dreamID)
	if err != nil {
		if errors.Is(err, service.ErrUpstreamFailure) {
			response.UpstreamFailure(c)
			return
		}
		h.handleDreamError(c, err, "分析梦境失败")
		return
	}

	response.Success(c, dream)
}

// handleDreamError 统一处理梦境服务的业务错误
func (h *DreamHandler) handleDreamError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrDreamNotFound):
		response.DreamNotFound(c)
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, "没有访问权限")
	default:
		response.InternalError(c, fallback)
	}
}

// paginationParams 解析分页查询参数
func paginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}
