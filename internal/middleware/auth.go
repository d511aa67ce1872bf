package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qooqz/certificates/internal/auth"
	"github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/util"
)

func (m Middleware) AuthMiddleware(ctx *gin.Context) {
	token, err := util.ReadBearerToken(ctx)
	if err != nil {
		m.app.Logger.Debugf("Failed to read token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err, "unauthorized"), nil)
		ctx.Abort()
		return
	}

	claim, err := m.app.JWTService.VerifyJwtToken(token)
	if err != nil {
		m.app.Logger.Debugf("Failed to verify token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid token", util.GenerateErrorMessages(err, "unauthorized"), nil)
		ctx.Abort()
		return
	}

	if claim.Type != constant.JWT_TYPE_ACCESS {
		m.app.Logger.Debugf("Invalid token type: %s", claim.Type)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid access token type", util.GenerateErrorMessages(err, "unauthorized"), nil)
		ctx.Abort()
		return
	}

	ctx.Set("user", claim.User)
	ctx.Next()
}

// AuthUser pulls the authenticated payload set by AuthMiddleware.
func AuthUser(ctx *gin.Context) (auth.JWTPayload, bool) {
	v, ok := ctx.Get("user")
	if !ok {
		return auth.JWTPayload{}, false
	}
	user, ok := v.(auth.JWTPayload)
	return user, ok
}
