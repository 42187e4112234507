package notification

import (
	"net/http"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.module",
	fx.Provide(NewService),
)

var Gateway = fx.Module("notification.server",
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Router  *gin.Engine
	Config  *config.Config
	Service *Service
}

// Notifications are always scoped to the caller, so the casbin layer is not
// involved here, any authenticated user may manage their own.
func registerRoutes(p routeParams) {
	notifications := p.Router.Group("/v1/notifications",
		middleware.AuthRequired(p.Config.Auth.Secret),
	)

	notifications.GET("", p.Service.listNotifications)
	notifications.GET("/unread-count", p.Service.unreadCount)
	notifications.POST("/:id/read", p.Service.markRead)
	notifications.POST("/read-all", p.Service.markAllRead)
}

type listNotificationsQuery struct {
	Unread bool `form:"unread"`
	pagination.Pagination
}

func (s *Service) listNotifications(c *gin.Context) {
	var query listNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(errutil.BadRequest("Parâmetros inválidos", err))
		return
	}

	notifications, pageInfo, err := s.ListNotifications(c.Request.Context(), ListNotificationsRequest{
		UserID:     c.GetString(middleware.ContextUserID),
		OnlyUnread: query.Unread,
		Pagination: query.Pagination,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"page_info":     pageInfo,
	})
}

func (s *Service) unreadCount(c *gin.Context) {
	count, err := s.UnreadCount(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (s *Service) markRead(c *gin.Context) {
	if err := s.MarkRead(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Service) markAllRead(c *gin.Context) {
	if err := s.MarkAllRead(c.Request.Context(), c.GetString(middleware.ContextUserID)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
