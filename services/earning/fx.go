package earning

import (
	"net/http"

	"eps-campanhas/pkg/authz"
	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("earning.module",
	fx.Provide(NewService),
)

var Gateway = fx.Module("earning.server",
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
	earnings := p.Router.Group("/v1/earnings",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	earnings.GET("", p.Service.listEarnings)
	earnings.POST("/:id/pay", p.Service.payEarning)
}

type listEarningsQuery struct {
	UserID     string `form:"user_id"`
	CampaignID string `form:"campaign_id"`
	Status     string `form:"status"`
	pagination.Pagination
}

func (s *Service) listEarnings(c *gin.Context) {
	var query listEarningsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	req := ListEarningsRequest{
		UserID:     query.UserID,
		CampaignID: query.CampaignID,
		Status:     query.Status,
		Pagination: query.Pagination,
	}

	// VENDEDOR enxerga so as proprias premiacoes, GERENTE as do time
	switch c.GetString(middleware.ContextUserRole) {
	case "VENDEDOR":
		req.UserID = c.GetString(middleware.ContextUserID)
		req.TeamManagerID = ""
	case "GERENTE":
		req.TeamManagerID = c.GetString(middleware.ContextUserID)
	}

	items, pageInfo, err := s.ListEarnings(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"page_info": pageInfo,
	})
}

func (s *Service) payEarning(c *gin.Context) {
	paid, err := s.PayEarning(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, paid)
}
