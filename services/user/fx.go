package user

import (
	"eps-campanhas/pkg/authz"
	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("user.module",
	fx.Provide(NewService),
)

var Gateway = fx.Module("user.server",
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
	users := p.Router.Group("/v1/users",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	users.POST("", p.Service.createUser)
	users.GET("", p.Service.listUsers)
	users.GET("/ranking", p.Service.ranking)
	users.GET("/:id", p.Service.getUser)
	users.PATCH("/:id", p.Service.updateUser)
}
