package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/adapters/signal"
	"github.com/ekaraca/watchtogether/internal/app"
	"github.com/ekaraca/watchtogether/internal/config"
	"github.com/ekaraca/watchtogether/internal/storage"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, store *storage.Store) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(ClientTokenMiddleware())

	r.Static("/videos", store.Dir())
	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Str("videos", store.Dir()).Msg("router setup")

	uploads := &UploadHandler{Orch: orch, Store: store, MaxUploadBytes: cfg.MaxUploadBytes}
	r.POST("/upload", uploads.HandleUpload)
	r.DELETE("/asset/:filename", uploads.HandleDelete)

	api := r.Group("/api")
	api.GET("/assets", uploads.HandleList)

	ctrl := signal.NewSignalWSController(orch)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("ct", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
