package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/models"
)

const (
	currentUserKey = "current_user"
	claimsKey      = "token_claims"
)

// UserLookup is the slice of the user repository the middleware needs.
type UserLookup interface {
	Get(ctx context.Context, uid uint64) (*models.User, error)
}

type Authenticator struct {
	JWT     JWT
	Revoker Revoker
	Users   UserLookup
	Logger  *zap.Logger
}

// Require resolves the bearer token into the current user or aborts with 401.
// Websocket upgrades may pass the token as ?token= since browsers cannot set headers there.
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abort(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		claims, err := a.JWT.Verify(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}
		if a.Revoker != nil {
			revoked, err := a.Revoker.Revoked(c.Request.Context(), claims.ID)
			if err != nil {
				a.logger().Warn("revocation lookup failed", zap.Error(err))
			}
			if revoked {
				abort(c, http.StatusUnauthorized, "token revoked")
				return
			}
		}
		uid, err := claims.UserUID()
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}
		user, err := a.Users.Get(c.Request.Context(), uid)
		if err != nil {
			a.logger().Error("load current user failed", zap.Uint64("uid", uid), zap.Error(err))
			abort(c, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil {
			abort(c, http.StatusNotFound, "user not found")
			return
		}
		if !user.IsActive {
			abort(c, http.StatusBadRequest, "inactive user")
			return
		}
		c.Set(currentUserKey, user)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireSuperuser must run after Require.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abort(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !user.IsSuperuser {
			abort(c, http.StatusForbidden, "the user doesn't have enough privileges")
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func CurrentClaims(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

func (a *Authenticator) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": message})
}
