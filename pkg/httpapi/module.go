package httpapi

import (
	"net/http"

	"eps-campanhas/pkg/health"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Invoke(registerOpsEndpoints),
)

type params struct {
	fx.In

	Router *gin.Engine
	Health health.HealthService
}

func registerOpsEndpoints(p params) {
	p.Router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	p.Router.GET("/health/liveness", p.Health.Liveness)
	p.Router.GET("/health/readiness", p.Health.Readiness)

	p.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
