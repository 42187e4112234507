package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ChannelWeb    = "WEB"
	ChannelMobile = "MOBILE"
	ChannelAPI    = "API"
)

// Tipo proprio pra nao colidir com outras chaves no context
type channelKey struct{}

var ChannelContextKey = channelKey{}

// normalizeChannel valida o canal informado no header X-Channel
func normalizeChannel(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "web":
		return ChannelWeb
	case "mobile", "app":
		return ChannelMobile
	default:
		return ChannelAPI
	}
}

// Channel injeta o canal de origem no context a partir do header X-Channel
func Channel() gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := normalizeChannel(c.GetHeader("X-Channel"))
		ctx := context.WithValue(c.Request.Context(), ChannelContextKey, channel)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// FromChannel verifica se o context veio de um canal especifico
func FromChannel(ctx context.Context, want string) bool {
	ch, ok := ctx.Value(ChannelContextKey).(string)
	return ok && ch == want
}

// GetChannel devolve o canal atual (default API)
func GetChannel(ctx context.Context) string {
	ch, ok := ctx.Value(ChannelContextKey).(string)
	if !ok {
		return ChannelAPI
	}
	return ch
}
