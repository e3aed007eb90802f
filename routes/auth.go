package routes

import (
	"influencia-server/services"
	"influencia-server/storage"
	"influencia-server/utils"

	"github.com/kataras/iris/v12"
)

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginHandler is shared by the sponsor, influencer and admin parties: it
// checks the credentials through the account service and hands back a token
// pair plus the role, the shape the clients expect.
func loginHandler(accounts *services.AccountService) iris.Handler {
	return func(ctx iris.Context) {
		var input LoginInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
		if err := utils.Validate.Struct(input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}

		user, err := accounts.Login(ctx.Request().Context(), input.Username, input.Password)
		if err != nil {
			utils.JSONError(ctx, iris.StatusUnauthorized, "invalid_credentials", err.Error())
			return
		}

		tokenPair, tokenErr := utils.CreateTokenPair(user.ID, user.Role)
		if tokenErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}

		ctx.JSON(iris.Map{
			"token":        string(tokenPair.AccessToken),
			"refreshToken": string(tokenPair.RefreshToken),
			"role":         user.Role,
			"user":         user.Serialize(),
		})
	}
}

// Signout clears every cached view, the sign-out-everywhere behavior of the
// old app.
func Signout(cache *storage.Cache) iris.Handler {
	return func(ctx iris.Context) {
		cache.InvalidateAll(ctx.Request().Context())
		ctx.JSON(iris.Map{"message": "Successfully signed out"})
	}
}
