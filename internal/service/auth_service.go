package service

import (
	"context"
	"errors"
	"time"

	"github.com/AlangGY/dream-catcher-server/internal/cache"
	"github.com/AlangGY/dream-catcher-server/internal/model"
	"github.com/AlangGY/dream-catcher-server/internal/repository"
	"github.com/AlangGY/dream-catcher-server/pkg/jwt"
	"github.com/AlangGY/dream-catcher-server/pkg/util"
)

// 认证服务相关错误
var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrInvalidRefresh     = errors.New("刷新令牌无效")
)

// AuthService 本地账号认证服务
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtService *jwt.JWTService
	cache      *cache.RedisCache
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(userRepo *repository.UserRepository, jwtService *jwt.JWTService, cache *cache.RedisCache) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		cache:      cache,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Nickname string `json:"nickname" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenPair 一对访问/刷新令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // 访问令牌有效期（秒）
}

// AuthResult 认证成功后返回的用户信息和令牌
type AuthResult struct {
	User  *UserData  `json:"user"`
	Token *TokenPair `json:"token"`
}

// Register 注册本地账号
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: &hash,
		Nickname:     req.Nickname,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Login 本地账号登录
// 用户不存在和密码错误返回同一个错误，不泄露账号是否存在
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if !util.CheckPassword(req.Password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// RefreshToken 用刷新令牌换发新的令牌对
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidRefresh
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	return result.Token, nil
}

// Logout 注销：把当前访问令牌加入黑名单直到其自然过期
func (s *AuthService) Logout(ctx context.Context, tokenHash string, expireAt time.Time) error {
	return s.cache.BlacklistToken(ctx, tokenHash, expireAt)
}

// issueTokens 为用户签发一对令牌
func (s *AuthService) issueTokens(user *model.User) (*AuthResult, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User: toUserData(user),
		Token: &TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int64(s.jwtService.GetAccessExpire().Seconds()),
		},
	}, nil
}
