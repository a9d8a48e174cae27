package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlangGY/dream-catcher-server/internal/repository"
	"github.com/AlangGY/dream-catcher-server/pkg/jwt"
)

func newAuthService(t *testing.T) (*AuthService, *jwt.JWTService) {
	t.Helper()
	db := newTestDB(t)
	jwtService := jwt.NewJWTService("test-secret-at-least-32-characters!!", time.Hour, 7*24*time.Hour)
	// 登出走 Redis 黑名单，这里不测，缓存留空
	return NewAuthService(repository.NewUserRepository(db), jwtService, nil), jwtService
}

func TestRegister(t *testing.T) {
	svc, jwtService := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, &RegisterRequest{
		Email:    "dreamer@example.com",
		Password: "secret-password",
		Nickname: "做梦的人",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.User.ID)
	assert.Equal(t, "dreamer@example.com", result.User.Email)
	assert.Equal(t, "做梦的人", result.User.Nickname)

	// 签发的访问令牌可以解析回同一个用户
	claims, err := jwtService.ValidateToken(result.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.EqualValues(t, 3600, result.Token.ExpiresIn)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	req := &RegisterRequest{
		Email:    "dreamer@example.com",
		Password: "secret-password",
		Nickname: "做梦的人",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{
		Email:    "dreamer@example.com",
		Password: "secret-password",
		Nickname: "做梦的人",
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, &LoginRequest{
		Email:    "dreamer@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token.AccessToken)
	assert.NotEmpty(t, result.Token.RefreshToken)
}

func TestLogin_WrongCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{
		Email:    "dreamer@example.com",
		Password: "secret-password",
		Nickname: "做梦的人",
	})
	require.NoError(t, err)

	// 密码错误和账号不存在返回同一个错误
	_, err = svc.Login(ctx, &LoginRequest{Email: "dreamer@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	svc, jwtService := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{
		Email:    "dreamer@example.com",
		Password: "secret-password",
		Nickname: "做梦的人",
	})
	require.NoError(t, err)

	pair, err := svc.RefreshToken(ctx, registered.Token.RefreshToken)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{
		Email:    "dreamer@example.com",
		Password: "secret-password",
		Nickname: "做梦的人",
	})
	require.NoError(t, err)

	// 访问令牌不能当刷新令牌用
	_, err = svc.RefreshToken(ctx, registered.Token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	_, err = svc.RefreshToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}
