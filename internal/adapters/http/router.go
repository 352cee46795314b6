package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/adapters/signal"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/app"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/config"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags every browser with a stable token so log
// lines from HTTP and the socket can be correlated. It carries no
// authority.
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

func SetupRouter(cfg *config.Config, svc *app.Service, ws *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(ClientTokenMiddleware())

	r.GET("/ws", ws.HandleSignal)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": svc.Rooms()})
	})

	api.GET("/rooms/:id", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		snap, ok := svc.InspectRoom(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	api.DELETE("/rooms/:id", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		if !svc.EvictRoom(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		log.Info().Str("module", "adapters.http").Str("room", string(id)).Msg("room evicted")
		c.JSON(http.StatusOK, gin.H{"evicted": string(id)})
	})

	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Stats())
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
