package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polymode/backend/internal/adapter"
	"polymode/backend/internal/agent"
	"polymode/backend/internal/graph"
	"polymode/backend/internal/mode"
	"polymode/backend/internal/profile"
	"polymode/backend/internal/supermemory"
	"polymode/backend/pkg/config"
	apperrors "polymode/backend/pkg/errors"
	"polymode/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Custom-mode store (SQLite)
	modeStore, err := mode.NewStore(cfg.ModesDBPath)
	if err != nil {
		log.Fatal("Failed to open modes database", zap.Error(err))
	}
	defer modeStore.Close()

	// Initialize dependencies
	smClient := supermemory.NewClient(cfg.SupermemoryURL, cfg.SupermemoryAPIKey, cfg.StoreTimeout)
	profileStore := profile.NewStore(smClient)
	llmAdapter := adapter.NewLLMAdapter(cfg.LiteLLMURL, cfg.OpenRouterAPIKey, cfg.ModelID)
	resolver := mode.NewResolver(modeStore, cfg.DefaultMode)
	orch := agent.NewOrchestrator(smClient, profileStore, llmAdapter, cfg)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		// Chat turn
		api.POST("/chat", func(c *gin.Context) {
			ctx := c.Request.Context()

			var req struct {
				UserID   string `json:"user_id" binding:"required"`
				Mode     string `json:"mode"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages" binding:"required,min=1"`
			}

			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			// The turn acts on the newest user message
			message := ""
			for i := len(req.Messages) - 1; i >= 0; i-- {
				if req.Messages[i].Role == "user" || req.Messages[i].Role == "" {
					message = req.Messages[i].Content
					break
				}
			}
			if message == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "no user message in conversation"})
				return
			}

			modeCfg := resolver.Resolve(ctx, req.UserID, req.Mode)
			reply, bundle, err := orch.RunTurn(ctx, req.UserID, modeCfg, message)
			if err != nil {
				log.Error("Failed to run chat turn", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"replies":   []string{reply},
				"mode":      modeCfg.Key,
				"base_role": modeCfg.BaseRole,
				"context": gin.H{
					"recent":     len(bundle.RecentMemories),
					"long_term":  len(bundle.LongTermMemories),
					"cross_role": len(bundle.CrossRoleMemories),
				},
			})
		})

		// List memories for a user, optionally scoped to a mode
		api.GET("/memories", func(c *gin.Context) {
			ctx := c.Request.Context()
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}
			modeKey := strings.TrimSpace(strings.ToLower(c.Query("mode")))

			var memories []supermemory.Memory
			if query := c.Query("query"); query != "" {
				memories = smClient.Search(ctx, userID, query, modeKey, cfg.SearchLimit)
			} else {
				memories = smClient.Recent(ctx, userID, modeKey, cfg.SearchLimit)
			}
			if memories == nil {
				memories = []supermemory.Memory{}
			}

			c.JSON(http.StatusOK, gin.H{"memories": memories})
		})

		// Delete one memory
		api.DELETE("/memories/:id", func(c *gin.Context) {
			if !smClient.Delete(c.Request.Context(), c.Param("id")) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete memory"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "deleted"})
		})

		// Entity graph over a user's memories
		api.GET("/graph", func(c *gin.Context) {
			ctx := c.Request.Context()
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}

			modeCfg := resolver.Resolve(ctx, userID, c.Query("mode"))
			memories := smClient.Recent(ctx, userID, modeCfg.Key, cfg.SearchLimit)
			c.JSON(http.StatusOK, graph.BuildGraph(memories, modeCfg.BaseRole))
		})

		// Static profile
		api.GET("/profile/:user_id", func(c *gin.Context) {
			p := profileStore.Get(c.Request.Context(), c.Param("user_id"))
			if p == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
				return
			}
			c.JSON(http.StatusOK, p)
		})

		api.PUT("/profile/:user_id", func(c *gin.Context) {
			var p profile.UserProfile
			if err := c.ShouldBindJSON(&p); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			p.UserID = c.Param("user_id")

			if !profileStore.Upsert(c.Request.Context(), p.UserID, &p) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "saved"})
		})

		// Modes: built-in templates plus the user's custom rows
		api.GET("/modes", func(c *gin.Context) {
			ctx := c.Request.Context()
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}

			custom, err := modeStore.List(ctx, userID)
			if err != nil {
				log.Error("Failed to list custom modes", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list modes"})
				return
			}
			if custom == nil {
				custom = []mode.CustomMode{}
			}

			c.JSON(http.StatusOK, gin.H{
				"builtin": mode.BuiltinKeys(),
				"custom":  custom,
			})
		})

		api.POST("/modes", func(c *gin.Context) {
			ctx := c.Request.Context()

			var req struct {
				UserID           string   `json:"user_id" binding:"required"`
				Key              string   `json:"key" binding:"required"`
				Name             string   `json:"name" binding:"required"`
				Emoji            string   `json:"emoji"`
				BaseRole         string   `json:"base_role"`
				Description      string   `json:"description"`
				DefaultTags      []string `json:"default_tags"`
				CrossModeSources []string `json:"cross_mode_sources"`
			}

			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			m := &mode.CustomMode{
				UserID:           req.UserID,
				Key:              req.Key,
				Name:             req.Name,
				Emoji:            req.Emoji,
				BaseRole:         req.BaseRole,
				Description:      req.Description,
				DefaultTags:      req.DefaultTags,
				CrossModeSources: req.CrossModeSources,
			}
			if err := modeStore.Create(ctx, m); err != nil {
				if _, ok := err.(*apperrors.ErrModeKeyTaken); ok {
					c.JSON(http.StatusConflict, gin.H{"error": "Mode key already exists"})
					return
				}
				log.Error("Failed to create custom mode", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create mode"})
				return
			}

			c.JSON(http.StatusCreated, m)
		})

		api.DELETE("/modes/:key", func(c *gin.Context) {
			ctx := c.Request.Context()
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}

			if err := modeStore.Delete(ctx, userID, c.Param("key")); err != nil {
				if _, ok := err.(*apperrors.ErrModeNotFound); ok {
					c.JSON(http.StatusNotFound, gin.H{"error": "Mode not found"})
					return
				}
				log.Error("Failed to delete custom mode", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete mode"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"status": "deleted"})
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
