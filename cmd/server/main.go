// Package main 是服务端的入口点
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlangGY/dream-catcher-server/internal/cache"
	"github.com/AlangGY/dream-catcher-server/internal/config"
	"github.com/AlangGY/dream-catcher-server/internal/handler"
	"github.com/AlangGY/dream-catcher-server/internal/middleware"
	"github.com/AlangGY/dream-catcher-server/internal/model"
	"github.com/AlangGY/dream-catcher-server/internal/repository"
	"github.com/AlangGY/dream-catcher-server/internal/service"
	"github.com/AlangGY/dream-catcher-server/pkg/jwt"
	"github.com/AlangGY/dream-catcher-server/pkg/util"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// 加载配置
	cfg, err := config.Load("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}

	// 自动迁移数据库表
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化 Redis
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		log.Fatalf("Failed to init redis: %v", err)
	}

	// 初始化 JWT 服务
	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpire,
		cfg.JWT.RefreshExpire,
	)

	// 初始化 Repository 层
	userRepo := repository.NewUserRepository(db)
	oauthRepo := repository.NewOAuthRepository(db)
	dreamRepo := repository.NewDreamRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)

	// 按配置文件写入 Kakao 提供方记录
	if err := seedOAuthProviders(cfg, oauthRepo); err != nil {
		log.Fatalf("Failed to seed oauth providers: %v", err)
	}

	// 初始化 AI 客户端
	chatClient := service.NewOpenAIService(cfg)

	// 初始化 Service 层
	authService := service.NewAuthService(userRepo, jwtService, redisCache)
	oauthService := service.NewOAuthService(cfg, userRepo, oauthRepo, jwtService)
	userService := service.NewUserService(userRepo)
	dreamService := service.NewDreamService(dreamRepo, chatClient)
	interviewService := service.NewInterviewService(interviewRepo, chatClient)

	// 初始化 Handler 层
	authHandler := handler.NewAuthHandler(authService, oauthService)
	userHandler := handler.NewUserHandler(userService)
	dreamHandler := handler.NewDreamHandler(dreamService)
	interviewHandler := handler.NewInterviewHandler(interviewService)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	router := gin.New()

	// 全局中间件
	router.Use(middleware.RecoveryMiddleware()) // 恢复 panic
	router.Use(middleware.LoggerMiddleware())   // 请求日志

	// CORS 按配置限制来源，未配置时放开（开发环境）
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORS) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORS
	}
	router.Use(middleware.CORSMiddleware(corsConfig))

	// 注册路由
	registerRoutes(router, jwtService, redisCache, authHandler, userHandler, dreamHandler, interviewHandler)

	// 创建 HTTP 服务器
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // AI 调用可能较慢
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := redisCache.Close(); err != nil {
		log.Printf("Failed to close redis: %v", err)
	}

	log.Println("Server exited")
}

// initDatabase 初始化数据库连接
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Username,
		cfg.Postgres.Password,
		cfg.Postgres.Database,
		cfg.Postgres.SSLMode,
	)

	// 配置 GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 配置连接池
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Postgres.MaxLifetime) * time.Second)

	log.Println("Database connected successfully")
	return db, nil
}

// autoMigrate 自动迁移数据库表
func autoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(
		&model.User{},
		&model.OAuthProvider{},
		&model.OAuthCredential{},
		&model.Dream{},
		&model.InterviewSession{},
		&model.InterviewMessage{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// seedOAuthProviders 根据配置写入 OAuth 提供方记录
// 启动时执行，配置变化时更新已有记录
func seedOAuthProviders(cfg *config.Config, oauthRepo *repository.OAuthRepository) error {
	if cfg.Kakao.ClientID == "" {
		log.Println("Kakao client_id not configured, skipping provider seed")
		return nil
	}

	provider := &model.OAuthProvider{
		Name:        model.OAuthProviderKakao,
		ClientID:    cfg.Kakao.ClientID,
		RedirectURI: cfg.Kakao.WebRedirectURI,
	}
	if cfg.Kakao.ClientSecret != "" {
		provider.ClientSecret = util.StringPtr(cfg.Kakao.ClientSecret)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return oauthRepo.EnsureProvider(ctx, provider)
}

// registerRoutes 注册所有路由
func registerRoutes(
	router *gin.Engine,
	jwtService *jwt.JWTService,
	redisCache *cache.RedisCache,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	dreamHandler *handler.DreamHandler,
	interviewHandler *handler.InterviewHandler,
) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 路由组
	v1 := router.Group("/v1")

	// 认证相关（无需登录）
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.GET("/kakao", authHandler.KakaoAuthURL)           // Kakao 授权页地址
		auth.GET("/kakao/callback", authHandler.KakaoCallback) // Kakao 授权回调
	}

	// 登出需要携带有效 Token
	v1.POST("/auth/logout", middleware.AuthMiddleware(jwtService, redisCache), authHandler.Logout)

	// 用户相关（需要登录）
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(jwtService, redisCache))
	{
		users.GET("/me", userHandler.GetProfile)
	}

	// 梦境访谈（需要登录）
	interview := v1.Group("/dreams/interview")
	interview.Use(middleware.AuthMiddleware(jwtService, redisCache))
	{
		interview.POST("/start", interviewHandler.Start)
		interview.POST("/answer", interviewHandler.Answer)
		interview.POST("/end", interviewHandler.End)
		interview.POST("/cancel", interviewHandler.Cancel)
		interview.GET("", interviewHandler.History)
		interview.GET("/:id", interviewHandler.GetByID)
	}

	// 梦境日记（需要登录）
	dreams := v1.Group("/dreams")
	dreams.Use(middleware.AuthMiddleware(jwtService, redisCache))
	{
		dreams.POST("", dreamHandler.Create)
		dreams.GET("", dreamHandler.List)
		dreams.GET("/:id", dreamHandler.Get)
		dreams.PUT("/:id", dreamHandler.Update)
		dreams.DELETE("/:id", dreamHandler.Delete)
		dreams.POST("/:id/analyze", dreamHandler.Analyze)
	}
}
