package utils

import (
	"influencia-server/models"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// UserIDFromTokenMiddleware extracts the user ID from the JWT and stores it
// in the request context for downstream handlers.
func UserIDFromTokenMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// ContextUserID reads the user ID a middleware stored earlier.
func ContextUserID(ctx iris.Context) uint {
	if v := ctx.Values().Get("userID"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func requireRole(ctx iris.Context, roles ...string) {
	claims := jwt.Get(ctx).(*AccessToken)
	for _, role := range roles {
		if claims.Role == role {
			ctx.Values().Set("userID", claims.ID)
			ctx.Next()
			return
		}
	}
	ctx.StatusCode(iris.StatusForbidden)
	ctx.JSON(iris.Map{"error": "forbidden", "message": "insufficient role"})
}

func SponsorOnlyMiddleware(ctx iris.Context) {
	requireRole(ctx, models.RoleSponsor)
}

func InfluencerOnlyMiddleware(ctx iris.Context) {
	requireRole(ctx, models.RoleInfluencer)
}

func AdminOnlyMiddleware(ctx iris.Context) {
	requireRole(ctx, models.RoleAdmin)
}
