package middleware

import (
	"strings"

	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// AuthRequired validates the bearer token and stores user_id and user_role on
// the gin context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Token de acesso ausente")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "Formato do header Authorization invalido")
			return
		}

		claims, err := security.ParseToken(parts[1], secret)
		if err != nil {
			abortUnauthorized(c, "Token invalido ou expirado")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	err := errutil.BaseError{Code: errutil.StatusUnauthorized, Message: msg}
	c.AbortWithStatusJSON(err.Code.HTTPStatus(), err.JSON())
}
