package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

// AuthRequired validates the bearer JWT, resolves (or lazily creates) the
// user row for its anon_id and stores it in the request context. Banned
// users are rejected here so no endpoint needs its own check.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			h.fail(c, http.StatusUnauthorized, "not_authenticated")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return h.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			h.fail(c, http.StatusUnauthorized, "not_authenticated")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			h.fail(c, http.StatusUnauthorized, "not_authenticated")
			c.Abort()
			return
		}
		anonID, _ := claims["anon_id"].(string)
		if anonID == "" {
			h.fail(c, http.StatusUnauthorized, "not_authenticated")
			c.Abort()
			return
		}

		user, err := h.Storage.GetOrCreateUser(anonID)
		if err != nil {
			h.Log.Error().Err(err).Str("anon_id", anonID).Msg("failed to resolve user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}

		if user.IsBlocked {
			if user.BlockEndTime > time.Now().Unix() {
				h.fail(c, http.StatusForbidden, "banned")
				c.Abort()
				return
			}
			// Ban expired; lift the flag on the next request.
			user.IsBlocked = false
			if err := h.Storage.UpdateUser(user); err != nil {
				h.Log.Error().Err(err).Str("user_id", user.ID).Msg("failed to lift expired ban")
			}
			_ = h.Storage.ClearBanFlag(user.ID)
		}

		c.Set("user", user)
		c.Next()
	}
}
