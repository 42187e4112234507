package rule

import (
	"eps-campanhas/pkg/authz"
	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("rule.module",
	fx.Provide(
		NewRepository,
		NewEvaluator,
		provideRuleCache,
		NewService,
	),
)

var Gateway = fx.Module("rule.server",
	fx.Invoke(registerRoutes),
)

func provideRuleCache() *RuleCache {
	return NewRuleCache(ruleCacheTTL)
}

type routeParams struct {
	fx.In

	Router   *gin.Engine
	Config   *config.Config
	Enforcer *casbin.Enforcer
	Service  *Service
}

func registerRoutes(p routeParams) {
	rules := p.Router.Group("/v1/rules",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	rules.POST("", p.Service.createRule)
	rules.GET("", p.Service.listRules)
	rules.POST("/evaluate", p.Service.evaluateExpression)
	rules.GET("/:id", p.Service.getRule)
	rules.PUT("/:id", p.Service.updateRule)
	rules.DELETE("/:id", p.Service.deleteRule)
}
