package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/yomogi/linkup/api/rest"
	"github.com/yomogi/linkup/audit"
	"github.com/yomogi/linkup/cache"
	"github.com/yomogi/linkup/config"
	dbadapter "github.com/yomogi/linkup/db"
	mw "github.com/yomogi/linkup/middleware"
	"github.com/yomogi/linkup/model"
	"github.com/yomogi/linkup/scheduler"
	"github.com/yomogi/linkup/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.JWTSecret == "" {
		log.Fatalf("config: security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Core ----
	dir := store.NewDirectory(db)

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Session cache ----
	c, err := cache.New(cache.Config{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddTicker("audit_prune", 24*time.Hour, func() {
		if err := auditSvc.Prune(cfg.Audit.Retention); err != nil {
			logger.Error("audit prune failed", zap.Error(err))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	limiter := mw.NewRateLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	defer limiter.Stop()
	r.Use(limiter.Handler())

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(dir, c, cfg.Security, auditSvc)
	profileH := apirest.NewProfileHandler(dir, auditSvc)
	socialH := apirest.NewSocialHandler(dir, auditSvc)
	msgH := apirest.NewMessageHandler(dir, auditSvc)
	mediaH := apirest.NewMediaHandler(dir, auditSvc)
	adminH := apirest.NewAdminHandler(db, dir, auditSvc)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		authed := api.Group("")
		authed.Use(mw.Auth(cfg.Security, c))

		authed.GET("/profile", profileH.Get)
		authed.PUT("/profile/email", profileH.UpdateEmail)
		authed.PUT("/profile/password", profileH.UpdatePassword)
		authed.PUT("/profile/image", profileH.UpdateImage)
		authed.DELETE("/profile", profileH.Delete)
		authed.GET("/users/search", profileH.Search)

		authed.POST("/social/requests", socialH.SendRequest)
		authed.POST("/social/requests/respond", socialH.Respond)
		authed.GET("/social/requests", socialH.Incoming)
		authed.GET("/social/friends", socialH.Friends)
		authed.DELETE("/social/friends/:name", socialH.Unfriend)

		authed.POST("/messages", msgH.Send)
		authed.GET("/messages/:name", msgH.Conversation)
		authed.POST("/messages/:name/read", msgH.MarkRead)
		authed.GET("/unread", msgH.Unread)

		authed.POST("/media", mediaH.Post)
		authed.GET("/media/feed", mediaH.Feed)
		authed.GET("/media/mine", mediaH.Mine)
		authed.DELETE("/media/:id", mediaH.Delete)
		authed.PUT("/media/:id", mediaH.Update)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/accounts", adminH.ListAccounts)
		adminG.DELETE("/accounts/:name", adminH.DeleteAccount)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
