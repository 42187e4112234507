package authz

import (
	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("authz", fx.Provide(NewEnforcer))

// NewEnforcer loads the RBAC model and policy configured under ACCESS_CONTROL.
func NewEnforcer(cfg *config.Config) (*casbin.Enforcer, error) {
	enforcer, err := casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
	if err != nil {
		zap.L().Error("[Authz] failed to load access control policy",
			zap.String("model", cfg.AccessControl.Model),
			zap.String("policy", cfg.AccessControl.Policy),
			zap.Error(err),
		)
		return nil, err
	}

	return enforcer, nil
}

// Authorize enforces (role, path, method) against the casbin policy. It runs
// after AuthRequired, which stores the role on the context.
func Authorize(enforcer *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(middleware.ContextUserRole)

		allowed, err := enforcer.Enforce(role, c.FullPath(), c.Request.Method)
		if err != nil {
			zap.L().Error("[Authz] enforce failed", zap.String("role", role), zap.String("path", c.FullPath()), zap.Error(err))
			baseErr := errutil.BaseError{Code: errutil.StatusInternal, Message: "Erro interno do servidor"}
			c.AbortWithStatusJSON(baseErr.Code.HTTPStatus(), baseErr.JSON())
			return
		}

		if !allowed {
			baseErr := errutil.BaseError{Code: errutil.StatusForbidden, Message: "Acesso negado"}
			c.AbortWithStatusJSON(baseErr.Code.HTTPStatus(), baseErr.JSON())
			return
		}

		c.Next()
	}
}
