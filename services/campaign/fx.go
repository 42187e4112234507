package campaign

import (
	"eps-campanhas/pkg/authz"
	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("campaign.module",
	fx.Provide(NewService),
)

var Gateway = fx.Module("campaign.server",
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
	campaigns := p.Router.Group("/v1/campaigns",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	campaigns.POST("", p.Service.createCampaign)
	campaigns.GET("", p.Service.listCampaigns)
	campaigns.GET("/:id", p.Service.getCampaign)
	campaigns.PATCH("/:id", p.Service.updateCampaign)
	campaigns.POST("/:id/activate", p.Service.activateCampaign)
	campaigns.POST("/:id/clone", p.Service.cloneCampaign)
	campaigns.POST("/:id/requirements", p.Service.addRequirement)
}
