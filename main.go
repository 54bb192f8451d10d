package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jwtapi/backend/internal/config"
	"github.com/jwtapi/backend/internal/db"
	"github.com/jwtapi/backend/internal/handler"
	"github.com/jwtapi/backend/internal/service"
	"github.com/jwtapi/backend/internal/token"
)

// @title JWT Auth API
// @version 1.0
// @description Credential issuance backend: login, refresh-token rotation, logout.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// .env 파일이 있으면 로드 (없어도 무시)
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to init postgres: %v", err)
	}
	defer pool.Close()

	store := db.NewPostgres(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	signer, err := token.NewSigner(token.Config{
		Secret:    cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.Issuer,
		Audience:  cfg.Auth.Audience,
		AccessTTL: cfg.Auth.AccessTTL,
	})
	if err != nil {
		log.Fatalf("failed to init token signer: %v", err)
	}

	authService := service.NewAuthService(store, service.NewBcryptHasher(), signer)

	if cfg.Auth.AdminUsername != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			log.Fatalf("failed to ensure admin user: %v", err)
		}
	}

	// Gin의 기본 라우터 생성
	router := gin.Default()
	router.Use(handler.CORSMiddleware(cfg.AllowedOrigins, true))

	router.GET("/ping", handler.Ping)
	router.GET("/", handler.Root)
	router.GET("/openapi.json", handler.OpenAPIDoc)

	authHandler := handler.NewAuthHandler(authService)

	auth := router.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/refresh", authHandler.Refresh)

	protected := auth.Group("")
	protected.Use(handler.AuthMiddleware(signer))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.GET("/all", handler.RequireRole("Admin"), authHandler.ListUsers)

	// 기본 포트 :8080 으로 서버 시작
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
