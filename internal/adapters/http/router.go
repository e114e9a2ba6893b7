package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Talk/internal/adapters/rtc"
	"github.com/dkeye/Talk/internal/adapters/signal"
	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/app/orch"
	"github.com/dkeye/Talk/internal/auth"
	"github.com/dkeye/Talk/internal/config"
	"github.com/dkeye/Talk/internal/metrics"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Deps is everything the HTTP surface serves from.
type Deps struct {
	Orch      *orch.Orchestrator
	Signal    *signal.SignalWSController
	Users     UserStore
	Chats     *app.ChatService
	Messenger *app.Messenger
	Tokens    *auth.TokenService
	ICE       *rtc.Provider
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TalkSessions", store))
	r.Use(Identify(d.Tokens))

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := &handlers{Deps: d}

	user := r.Group("/user")
	user.POST("/register", h.register)
	user.POST("/login", h.login)
	user.POST("/logout", h.logout)
	user.GET("/fetchUser", RequireUser(), h.fetchUsers)
	user.POST("/updateWallet", RequireUser(), h.updateWallet)

	chat := r.Group("/chat", RequireUser())
	chat.POST("", h.accessChat)
	chat.GET("", h.fetchChats)
	chat.POST("/group", h.createGroup)
	chat.GET("/group", h.fetchGroups)
	chat.PUT("/group/add", h.addToGroup)
	chat.DELETE("/group/:chatId", h.deleteGroup)

	message := r.Group("/message", RequireUser())
	message.POST("", h.sendMessage)
	message.GET("/:chatId", h.allMessages)
	message.GET("/last/:chatId", h.lastMessage)

	api := r.Group("/api")
	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:id", h.getRoom)
	api.GET("/ice-servers", h.iceServers)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("user", c.GetString(signal.UserKey)).Msg("ws signal endpoint hit")
		d.Signal.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

// WithCORS wraps the engine so browsers on the allowed origins can call the API with credentials.
func WithCORS(h http.Handler, allow []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allow,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(h)
}
