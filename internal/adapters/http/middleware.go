package http

import (
	"net/http"
	"strings"

	"github.com/dkeye/Talk/internal/adapters/signal"
	"github.com/dkeye/Talk/internal/auth"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const sessionUserKey = "user_id"

// Identify attaches the caller's user id when one can be established:
// a bearer token, a ?token= query (browsers cannot set headers on a WebSocket
// upgrade) or the login cookie session, in that order. Anonymous requests pass through.
func Identify(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw != "" && tokens != nil {
			uid, err := tokens.Verify(raw)
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("rejected token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			c.Set(signal.UserKey, string(uid))
			c.Next()
			return
		}
		if uid, ok := sessions.Default(c).Get(sessionUserKey).(string); ok && uid != "" {
			c.Set(signal.UserKey, uid)
		}
		c.Next()
	}
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(signal.UserKey) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString(signal.UserKey))
}
