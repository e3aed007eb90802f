package utils

import (
	"errors"

	"influencia-server/services"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// Validate is the shared validator the routes run request inputs through.
var Validate = validator.New()

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}

// WriteCached writes a payload that was rendered (and possibly cached) by
// a service as the whole response body.
func WriteCached(ctx iris.Context, payload []byte) {
	ctx.ContentType("application/json")
	ctx.Write(payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
func RespondServiceError(ctx iris.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		JSONError(ctx, iris.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		JSONError(ctx, iris.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, services.ErrConflict):
		JSONError(ctx, iris.StatusBadRequest, "conflict", err.Error())
	case errors.Is(err, services.ErrReferential):
		JSONError(ctx, iris.StatusBadRequest, "referential_error", err.Error())
	case errors.Is(err, services.ErrValidation):
		JSONError(ctx, iris.StatusUnprocessableEntity, "validation_error", err.Error())
	default:
		CreateInternalServerError(ctx)
	}
}
