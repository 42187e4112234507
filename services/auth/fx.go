package auth

import (
	"net/http"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.module",
	fx.Provide(NewService),
)

var Gateway = fx.Module("auth.server",
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Router  *gin.Engine
	Config  *config.Config
	Service *Service
}

func registerRoutes(p routeParams) {
	public := p.Router.Group("/v1/auth")
	public.POST("/login", p.Service.login)
	public.POST("/refresh", p.Service.refresh)

	// sessao propria, casbin fica de fora aqui
	private := p.Router.Group("/v1/auth", middleware.AuthRequired(p.Config.Auth.Secret))
	private.GET("/me", p.Service.me)
	private.POST("/logout", p.Service.logout)
}

func (s *Service) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	pair, u, err := s.Login(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.ExpiresAt,
		"user":          u,
	})
}

func (s *Service) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("Dados inválidos", err))
		return
	}

	pair, err := s.Refresh(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (s *Service) me(c *gin.Context) {
	u, err := s.Me(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (s *Service) logout(c *gin.Context) {
	if err := s.Logout(c.Request.Context(), c.GetString(middleware.ContextUserID)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
