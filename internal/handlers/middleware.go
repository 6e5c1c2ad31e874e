package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatService/internal/errs"
	"chatService/internal/models"
	"chatService/internal/msgs"
	"chatService/internal/utils"
)

// IdentityMiddleware decodes the gateway-issued token into the opaque user id
// routes act on behalf of. With no configured key the middleware is a no-op:
// the deployment then trusts the network boundary entirely.
func IdentityMiddleware(jwtKey []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if len(jwtKey) == 0 {
			ctx.Next()
			return
		}

		token := ctx.GetHeader("Authorization")
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrUnauthorized))
			return
		}

		claims, err := utils.DecodeIdentity(token, jwtKey)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.FailureResponse(msgs.MsgOperationFailed, errs.ErrInvalidToken))
			return
		}

		ctx.Set("user_id", claims.UserID)
		ctx.Next()
	}
}
