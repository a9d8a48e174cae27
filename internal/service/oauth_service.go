package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/AlangGY/dream-catcher-server/internal/config"
	"github.com/AlangGY/dream-catcher-server/internal/model"
	"github.com/AlangGY/dream-catcher-server/internal/repository"
	"github.com/AlangGY/dream-catcher-server/pkg/jwt"
	"github.com/AlangGY/dream-catcher-server/pkg/util"
)

// OAuth 服务相关错误
var (
	ErrOAuthFailed      = errors.New("第三方登录失败")
	ErrUnknownPlatform  = errors.New("未知的登录平台")
	ErrProviderNotFound = errors.New("OAuth 提供方未配置")
)

// 登录平台标识，决定回调地址和回调后的响应方式
const (
	PlatformWeb = "web" // 浏览器端，回调后重定向到前端
	PlatformApp = "app" // 移动端，回调后返回 JSON
)

// Kakao 开放平台端点
const (
	kakaoAuthBaseURL = "https://kauth.kakao.com"
	kakaoAPIBaseURL  = "https://kapi.kakao.com"
)

// OAuthService Kakao 第三方登录服务
type OAuthService struct {
	config     *config.Config
	userRepo   *repository.UserRepository
	oauthRepo  *repository.OAuthRepository
	jwtService *jwt.JWTService
	client     *http.Client

	// 测试中可替换为 httptest 地址
	authBaseURL string
	apiBaseURL  string
}

// NewOAuthService 创建 OAuthService 实例
func NewOAuthService(cfg *config.Config, userRepo *repository.UserRepository, oauthRepo *repository.OAuthRepository, jwtService *jwt.JWTService) *OAuthService {
	return &OAuthService{
		config:     cfg,
		userRepo:   userRepo,
		oauthRepo:  oauthRepo,
		jwtService: jwtService,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		authBaseURL: kakaoAuthBaseURL,
		apiBaseURL:  kakaoAPIBaseURL,
	}
}

// kakaoTokenResponse Kakao 令牌接口响应
type kakaoTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// kakaoUserResponse Kakao 用户信息接口响应
type kakaoUserResponse struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// GetKakaoAuthURL 生成 Kakao 授权页地址
func (s *OAuthService) GetKakaoAuthURL(platform string) (string, error) {
	redirectURI, err := s.redirectURI(platform)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client_id", s.config.Kakao.ClientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")

	return fmt.Sprintf("%s/oauth/authorize?%s", s.authBaseURL, params.Encode()), nil
}

// HandleKakaoCallback 处理 Kakao 授权回调
// 换取 Kakao 令牌、拉取用户信息，然后在单个事务中
// 查找或创建本地用户与授权凭据，最后签发本服务的令牌对
func (s *OAuthService) HandleKakaoCallback(ctx context.Context, code, platform string) (*AuthResult, error) {
	redirectURI, err := s.redirectURI(platform)
	if err != nil {
		return nil, err
	}

	kakaoToken, err := s.exchangeToken(ctx, code, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthFailed, err)
	}

	kakaoUser, err := s.fetchUser(ctx, kakaoToken.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthFailed, err)
	}

	provider, err := s.oauthRepo.GetProviderByName(ctx, model.OAuthProviderKakao)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}

	var user *model.User
	err = s.oauthRepo.Transaction(ctx, func(tx *gorm.DB) error {
		txUserRepo := s.userRepo.WithTx(tx)
		txOAuthRepo := s.oauthRepo.WithTx(tx)

		providerUserID := strconv.FormatInt(kakaoUser.ID, 10)
		credential, err := txOAuthRepo.GetCredential(ctx, providerUserID, provider.ID)
		if err != nil {
			return err
		}

		if credential != nil {
			// 老用户：刷新保存的 Kakao 令牌
			user = credential.User
			if user == nil {
				if user, err = txUserRepo.GetByID(ctx, credential.UserID); err != nil {
					return err
				}
			}
			return txOAuthRepo.UpdateCredentialTokens(ctx, credential.ID, kakaoToken.AccessToken, kakaoToken.RefreshToken)
		}

		// 新用户：创建本地账号并绑定凭据
		// Kakao 未授权邮箱时用平台 ID 生成占位邮箱
		email := kakaoUser.KakaoAccount.Email
		if email == "" {
			email = fmt.Sprintf("kakao_%s@dream-catcher.local", providerUserID)
		}
		nickname := kakaoUser.KakaoAccount.Profile.Nickname
		if nickname == "" {
			nickname = "梦境旅人"
		}

		user = &model.User{
			Email:    email,
			Nickname: nickname,
		}
		if image := kakaoUser.KakaoAccount.Profile.ProfileImageURL; image != "" {
			user.ProfileImage = util.StringPtr(image)
		}
		if err := txUserRepo.Create(ctx, user); err != nil {
			return err
		}

		return txOAuthRepo.CreateCredential(ctx, &model.OAuthCredential{
			ProviderUserID: providerUserID,
			UserID:         user.ID,
			ProviderID:     provider.ID,
			AccessToken:    util.StringPtr(kakaoToken.AccessToken),
			RefreshToken:   util.StringPtr(kakaoToken.RefreshToken),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// FrontendRedirectURL 拼接 Web 回调成功后跳转的前端地址
// 令牌放在查询参数里交给前端保存
func (s *OAuthService) FrontendRedirectURL(token *TokenPair) string {
	params := url.Values{}
	params.Set("access_token", token.AccessToken)
	params.Set("refresh_token", token.RefreshToken)
	return fmt.Sprintf("%s/oauth/callback?%s", strings.TrimRight(s.config.Kakao.FrontendURL, "/"), params.Encode())
}

// redirectURI 按平台选择回调地址
func (s *OAuthService) redirectURI(platform string) (string, error) {
	switch platform {
	case PlatformWeb:
		return s.config.Kakao.WebRedirectURI, nil
	case PlatformApp:
		return s.config.Kakao.AppRedirectURI, nil
	default:
		return "", ErrUnknownPlatform
	}
}

// exchangeToken 用授权码换取 Kakao 令牌
func (s *OAuthService) exchangeToken(ctx context.Context, code, redirectURI string) (*kakaoTokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", s.config.Kakao.ClientID)
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)
	if s.config.Kakao.ClientSecret != "" {
		form.Set("client_secret", s.config.Kakao.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authBaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token kakaoTokenResponse
	if err := s.do(req, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("令牌响应缺少 access_token")
	}
	return &token, nil
}

// fetchUser 用 Kakao 令牌拉取用户信息
func (s *OAuthService) fetchUser(ctx context.Context, accessToken string) (*kakaoUserResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+"/v2/user/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user kakaoUserResponse
	if err := s.do(req, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, errors.New("用户信息响应缺少 id")
	}
	return &user, nil
}

// do 执行请求并解析 JSON 响应
func (s *OAuthService) do(req *http.Request, respBody interface{}) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Kakao 接口返回 %d: %s", resp.StatusCode, util.TruncateString(string(body), 200))
	}
	return json.Unmarshal(body, respBody)
}

// issueTokens 为用户签发一对令牌
func (s *OAuthService) issueTokens(user *model.User) (*AuthResult, error) {
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
