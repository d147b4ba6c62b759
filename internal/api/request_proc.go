package api

import (
	"github.com/jdav-kompass/kompass/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type requestStep[T any] func(echo.Context, *T) *service.Error

// ProcessRequest runs the decoding steps in order and stops at the first
// failing one.
func ProcessRequest[T any](e echo.Context, req *T, steps ...requestStep[T]) *service.Error {
	for _, step := range steps {
		if err := step(e, req); err != nil {
			return err
		}
	}
	return nil
}

func bindQuery[T any](e echo.Context, req *T) *service.Error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(e, req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid query parameters")
	}
	return nil
}

func bindPath[T any](e echo.Context, req *T) *service.Error {
	if err := (&echo.DefaultBinder{}).BindPathParams(e, req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid path parameters")
	}
	return nil
}

func bindBody[T any](e echo.Context, req *T) *service.Error {
	if err := (&echo.DefaultBinder{}).BindBody(e, req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}
	return nil
}

func validateRequest[T any](e echo.Context, req *T) *service.Error {
	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}
