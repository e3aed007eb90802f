package utils

import (
	"github.com/kataras/iris/v12"
)

func CreateError(statusCode int, title string, detail string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{
		"error": iris.Map{
			"title":  title,
			"detail": detail,
		},
	})
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(
		iris.StatusInternalServerError,
		"Internal Server Error",
		"An unexpected error occurred.",
		ctx)
}

func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, "Not Found", "Resource not found.", ctx)
}

func CreateUsernameAlreadyRegistered(ctx iris.Context) {
	CreateError(iris.StatusBadRequest, "Conflict", "Username or email already registered.", ctx)
}

func HandleValidationErrors(err error, ctx iris.Context) {
	CreateError(iris.StatusUnprocessableEntity, "Validation Error", err.Error(), ctx)
}
