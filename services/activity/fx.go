package activity

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

var Module = fx.Module("activity.module",
	fx.Provide(NewService),
)

var Gateway = fx.Module("activity.server",
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
	activities := p.Router.Group("/v1/activities",
		middleware.AuthRequired(p.Config.Auth.Secret),
		authz.Authorize(p.Enforcer),
	)

	activities.GET("", p.Service.listActivities)
}

type listActivitiesQuery struct {
	Entity   string `form:"entity"`
	EntityID string `form:"entity_id"`
	pagination.Pagination
}

func (s *Service) listActivities(c *gin.Context) {
	var query listActivitiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	req := ListActivitiesRequest{
		Entity:     query.Entity,
		EntityID:   query.EntityID,
		Pagination: query.Pagination,
	}

	// apenas ADMIN enxerga atividades de todos os usuarios
	if c.GetString(middleware.ContextUserRole) != "ADMIN" {
		req.UserID = c.GetString(middleware.ContextUserID)
	}

	activities, pageInfo, err := s.ListActivities(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"page_info":  pageInfo,
	})
}
