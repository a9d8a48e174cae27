// Package response 提供统一的 HTTP 响应格式
// 所有 API 都使用相同的响应结构，便于前端处理
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
// code: 业务状态码（0 表示成功）
// message: 提示信息
// data: 响应数据
type Response struct {
	Code    int         `json:"code"`           // 业务状态码
	Message string      `json:"message"`        // 提示信息
	Data    interface{} `json:"data,omitempty"` // 响应数据，可选
}

// 业务状态码定义
const (
	CodeSuccess       = 0    // 成功
	CodeBadRequest    = 1000 // 请求参数错误
	CodeUnauthorized  = 1001 // 未授权
	CodeForbidden     = 1002 // 禁止访问
	CodeNotFound      = 1003 // 资源不存在
	CodeInternalError = 1004 // 服务器内部错误

	CodeEmailExists        = 1101 // 邮箱已被注册
	CodeInvalidCredentials = 1102 // 邮箱或密码错误
	CodeOAuthFailed        = 1103 // 第三方登录失败

	CodeDreamNotFound = 1201 // 梦境记录不存在

	CodeInterviewNotFound      = 1301 // 访谈会话不存在
	CodeInterviewNotInProgress = 1302 // 访谈会话不在可操作状态

	CodeUpstreamFailure = 1501 // AI 服务调用失败
)

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 返回成功响应（带自定义消息）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Created 返回 201 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "创建成功",
		Data:    data,
	})
}

// NoContent 返回 204 无内容响应（用于删除操作）
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithCode 返回错误响应（带业务状态码）
// 参数:
//   - c: Gin 上下文
//   - httpCode: HTTP 状态码
//   - bizCode: 业务状态码
//   - message: 错误信息
func ErrorWithCode(c *gin.Context, httpCode, bizCode int, message string) {
	c.JSON(httpCode, Response{
		Code:    bizCode,
		Message: message,
	})
}

// BadRequest 返回 400 错误（请求参数错误）
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized 返回 401 错误（未授权）
func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden 返回 403 错误（禁止访问）
func Forbidden(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusForbidden, CodeForbidden, message)
}

// NotFound 返回 404 错误（资源不存在）
func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusNotFound, CodeNotFound, message)
}

// InternalError 返回 500 错误（服务器内部错误）
func InternalError(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusInternalServerError, CodeInternalError, message)
}

// EmailExists 返回邮箱已存在错误
func EmailExists(c *gin.Context) {
	ErrorWithCode(c, http.StatusConflict, CodeEmailExists, "邮箱已被注册")
}

// InvalidCredentials 返回登录凭据错误
// 不区分"用户不存在"和"密码错误"，避免暴露注册信息
func InvalidCredentials(c *gin.Context) {
	ErrorWithCode(c, http.StatusUnauthorized, CodeInvalidCredentials, "邮箱或密码错误")
}

// DreamNotFound 返回梦境记录不存在错误
func DreamNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeDreamNotFound, "梦境记录不存在")
}

// InterviewNotFound 返回访谈会话不存在错误
func InterviewNotFound(c *gin.Context) {
	ErrorWithCode(c, http.StatusNotFound, CodeInterviewNotFound, "访谈会话不存在")
}

// InterviewNotInProgress 返回访谈状态错误
func InterviewNotInProgress(c *gin.Context) {
	ErrorWithCode(c, http.StatusConflict, CodeInterviewNotInProgress, "访谈会话不在进行中")
}

// UpstreamFailure 返回 AI 服务调用失败错误
func UpstreamFailure(c *gin.Context) {
	ErrorWithCode(c, http.StatusBadGateway, CodeUpstreamFailure, "AI 服务暂时不可用")
}
