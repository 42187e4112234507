package submission

import (
	"eps-campanhas/pkg/authz"
	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("submission.module",
	fx.Provide(NewService),
)

var Gateway = fx.Module("submission.server",
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
	submissions := p.Router.Group("/v1/submissions",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	submissions.POST("", p.Service.createSubmission)
	submissions.GET("", p.Service.listSubmissions)
	submissions.POST("/receipts", p.Service.uploadReceipt)
	submissions.GET("/:id", p.Service.getSubmission)
	submissions.POST("/:id/validate", p.Service.validateSubmission)
	submissions.POST("/:id/reject", p.Service.rejectSubmission)

	kits := p.Router.Group("/v1/kits",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	kits.GET("", p.Service.listKits)
}
