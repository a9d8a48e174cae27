// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/AlangGY/dream-catcher-server/internal/middleware"
	"github.com/AlangGY/dream-catcher-server/internal/service"
	"github.com/AlangGY/dream-catcher-server/pkg/response"
)

// AuthHandler 认证请求处理器
type AuthHandler struct {
	authService  *service.AuthService
	oauthService *service.OAuthService
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService, oauthService *service.OAuthService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
	}
}

// Register 注册
// @Summary 注册本地账号
// @Description 用邮箱和密码注册新账号，成功后直接返回令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body service.RegisterRequest true "注册信息"
// @Success 201 {object} response.Response{data=service.AuthResult}
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.EmailExists(c)
			return
		}
		response.InternalError(c, "注册失败")
		return
	}

	response.Created(c, result)
}

// Login 登录
// @Summary 本地账号登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body service.LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=service.AuthResult}
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.InvalidCredentials(c)
			return
		}
		response.InternalError(c, "登录失败")
		return
	}

	response.Success(c, result)
}

// refreshRequest 刷新令牌请求
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新令牌
// @Summary 用刷新令牌换发新的令牌对
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body refreshRequest true "刷新令牌"
// @Success 200 {object} response.Response{data=service.TokenPair}
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	token, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			response.Unauthorized(c, "刷新令牌无效或已过期")
			return
		}
		response.InternalError(c, "刷新令牌失败")
		return
	}

	response.Success(c, token)
}

// Logout 登出
// @Summary 登出当前账号
// @Description 把当前访问令牌加入黑名单直到其自然过期
// @Tags 认证
// @Security Bearer
// @Produce json
// @Success 200 {object} response.Response
// @Router /v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// 认证中间件写入的原始 Token 和过期时间
	tokenString := c.GetString("token")
	tokenExp, exists := c.Get("token_exp")
	if tokenString == "" || !exists {
		response.Unauthorized(c, "请先登录")
		return
	}

	expireAt := time.Now().Add(time.Hour)
	if numericDate, ok := tokenExp.(*jwt.NumericDate); ok && numericDate != nil {
		expireAt = numericDate.Time
	}

	if err := h.authService.Logout(c.Request.Context(), middleware.HashToken(tokenString), expireAt); err != nil {
		response.InternalError(c, "登出失败")
		return
	}

	response.SuccessWithMessage(c, "已登出", nil)
}

// KakaoAuthURL 获取 Kakao 授权页地址
// @Summary 获取 Kakao 登录跳转地址
// @Tags 认证
// @Produce json
// @Param platform query string false "登录平台 web/app，默认 web"
// @Success 200 {object} response.Response
// @Router /v1/auth/kakao [get]
func (h *AuthHandler) KakaoAuthURL(c *gin.Context) {
	platform := c.DefaultQuery("platform", service.PlatformWeb)

	authURL, err := h.oauthService.GetKakaoAuthURL(platform)
	if err != nil {
		response.BadRequest(c, "不支持的登录平台")
		return
	}

	response.Success(c, gin.H{"auth_url": authURL})
}

// KakaoCallback 处理 Kakao 授权回调
// @Summary Kakao 登录回调
// @Description Web 平台重定向到前端并携带令牌，App 平台直接返回 JSON
// @Tags 认证
// @Produce json
// @Param code query string true "Kakao 授权码"
// @Param platform query string false "登录平台 web/app，默认 web"
// @Success 200 {object} response.Response{data=service.AuthResult}
// @Router /v1/auth/kakao/callback [get]
func (h *AuthHandler) KakaoCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "缺少授权码")
		return
	}
	platform := c.DefaultQuery("platform", service.PlatformWeb)

	result, err := h.oauthService.HandleKakaoCallback(c.Request.Context(), code, platform)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPlatform):
			response.BadRequest(c, "不支持的登录平台")
		case errors.Is(err, service.ErrOAuthFailed):
			response.ErrorWithCode(c, http.StatusBadGateway, response.CodeOAuthFailed, "Kakao 登录失败")
		default:
			response.InternalError(c, "Kakao 登录失败")
		}
		return
	}

	// Web 平台回调后把令牌交给前端页面
	if platform == service.PlatformWeb {
		c.Redirect(http.StatusFound, h.oauthService.FrontendRedirectURL(result.Token))
		return
	}

	response.Success(c, result)
}
