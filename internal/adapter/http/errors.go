package http

import (
	"errors"
	"net/http"

	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/ledger"

	"github.com/labstack/echo/v4"
)

var statusByCode = map[string]int{
	apperr.CodeValidation:        http.StatusUnprocessableEntity,
	apperr.CodeForbidden:         http.StatusForbidden,
	apperr.CodeKYCNotVerified:    http.StatusForbidden,
	apperr.CodeNotFound:          http.StatusNotFound,
	apperr.CodeInsufficientFunds: http.StatusConflict,
	apperr.CodeExceedsCapacity:   http.StatusConflict,
	apperr.CodeFullyFunded:       http.StatusConflict,
	apperr.CodeInvalidTransition: http.StatusConflict,
	apperr.CodePendingExists:     http.StatusConflict,
	apperr.CodeVersionConflict:   http.StatusConflict,
	apperr.CodeDuplicate:         http.StatusOK,
	apperr.CodeTimeout:           http.StatusServiceUnavailable,
	apperr.CodeLockContention:    http.StatusServiceUnavailable,
	apperr.CodeStorageFailure:    http.StatusInternalServerError,
	apperr.CodeInternal:          http.StatusInternalServerError,
}

func statusOf(code string) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error","code"}. Internal errors do not leak their text.
func fail(c echo.Context, err error) error {
	code := apperr.Code(err)
	msg := err.Error()
	if code == apperr.CodeInternal {
		c.Logger().Error(err)
		msg = "internal error"
	}
	return c.JSON(statusOf(code), ErrorResponse{Error: msg, Code: code})
}

// reply sends dto with status, or the prior result with 200 when the
// operation was already applied under the same key.
func reply[T any](c echo.Context, status int, dto *T, err error) error {
	switch {
	case err == nil:
		return c.JSON(status, dto)
	case errors.Is(err, ledger.ErrDuplicateOperation) && dto != nil:
		c.Response().Header().Set(middleware.HeaderReplay, "true")
		return c.JSON(http.StatusOK, dto)
	}
	return fail(c, err)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: apperr.CodeValidation})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    apperr.CodeValidation,
		Details: ToFieldErrors(err),
	})
}
