package api

import (
	"luckydraw/domain/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig wires optional router concerns
type RouterConfig struct {
	AdminJWTSecret string      // empty leaves admin routes open
	Metrics        HTTPMetrics // nil disables request metrics
}

// NewRouter builds the HTTP surface of the lucky draw service
func NewRouter(engine interfaces.LuckyDrawService, stream EventStream, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	if cfg.Metrics != nil {
		r.Use(RequestMetrics(cfg.Metrics))
	}

	r.GET("/api/health", Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewLuckyDrawHandler(engine, stream)

	admin := r.Group("/api/admin")
	if cfg.AdminJWTSecret != "" {
		admin.Use(AdminAuth(cfg.AdminJWTSecret))
	}

	draw := admin.Group("/lucky-draw")
	draw.POST("/start", h.StartDraw)
	draw.POST("/redraw", h.Redraw)
	draw.GET("/results", h.Results)
	draw.GET("/history", h.History)
	draw.GET("/stream", h.Stream)

	admin.POST("/prizes/reset", h.ResetPrizes)

	return r
}
