package premio

import (
	"eps-campanhas/pkg/authz"
	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("premio.module",
	fx.Provide(NewService),
)

var Gateway = fx.Module("premio.server",
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Router   *gin.Engine
	Config   *config.Config
	Enforcer *casbin.Enforcer
	Service  *Service
}

func registerRoutes(p routeParams) {
	premios := p.Router.Group("/v1/premios",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	premios.POST("", p.Service.createPremio)
	premios.GET("", p.Service.listPremios)
	premios.GET("/:id", p.Service.getPremio)
	premios.PATCH("/:id", p.Service.updatePremio)
	premios.POST("/:id/redeem", p.Service.redeemPremio)

	redemptions := p.Router.Group("/v1/redemptions",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	redemptions.GET("", p.Service.listRedemptions)
	redemptions.POST("/:id/cancel", p.Service.cancelRedemption)
	redemptions.POST("/:id/deliver", p.Service.deliverRedemption)
}
