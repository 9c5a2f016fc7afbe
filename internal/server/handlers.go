package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/cache"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/config"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/dashboard"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/exchange"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/gate"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/observability"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/server/websocket"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
)

// Handlers owns the HTTP endpoints and their collaborators.
type Handlers struct {
	manager      *dashboard.Manager
	competitions storage.CompetitionStore
	history      storage.VolumeHistoryStore
	gate         *gate.Gate
	exchange     *exchange.Client
	cache        *cache.Cache
	ttl          config.CacheConfig
	hub          *websocket.Hub
	logger       zerolog.Logger
}

// HandlerOptions for creating Handlers. History and Hub are optional.
type HandlerOptions struct {
	Manager      *dashboard.Manager
	Competitions storage.CompetitionStore
	History      storage.VolumeHistoryStore
	Gate         *gate.Gate
	Exchange     *exchange.Client
	Cache        *cache.Cache
	CacheTTL     config.CacheConfig
	Hub          *websocket.Hub
	Logger       zerolog.Logger
}

// NewHandlers creates Handlers.
func NewHandlers(opts HandlerOptions) *Handlers {
	return &Handlers{
		manager:      opts.Manager,
		competitions: opts.Competitions,
		history:      opts.History,
		gate:         opts.Gate,
		exchange:     opts.Exchange,
		cache:        opts.Cache,
		ttl:          opts.CacheTTL,
		hub:          opts.Hub,
		logger:       opts.Logger.With().Str("component", "http").Logger(),
	}
}

// Register wires all routes onto the router.
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/healthz", h.health)
	router.GET("/readyz", h.ready)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	if h.hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			h.hub.Handle(c.Writer, c.Request)
		})
	}

	api := router.Group("/api")
	{
		api.GET("/tokens", h.tokens)
		api.GET("/binance-proxy", h.proxy)
		api.POST("/token-details-batch", h.tokenDetailsBatch)
		api.POST("/verify-pass", h.verifyPass)
		api.GET("/volume-history", h.volumeHistory)

		api.GET("/competitions", h.listCompetitions)
		api.POST("/competitions", h.upsertCompetition)
		api.PUT("/competitions/:alphaId", h.updateCompetitionTimes)
		api.DELETE("/competitions/:alphaId", h.deleteCompetition)
	}
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ready reports whether the initial catalog load has happened.
func (h *Handlers) ready(c *gin.Context) {
	if len(h.manager.Catalog()) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
