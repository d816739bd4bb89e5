package http

import (
	"strings"

	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/domain/apperr"

	"github.com/labstack/echo/v4"
)

// walletOwner resolves :user_id ("me" is the caller). Only the owner and
// admins may read a wallet.
func walletOwner(c echo.Context) (string, error) {
	caller := middleware.UserID(c)
	owner := strings.TrimSpace(c.Param("user_id"))
	if owner == "" || owner == "me" {
		owner = caller
	}
	if owner != caller && middleware.Role(c) != middleware.RoleAdmin {
		return "", apperr.ErrForbidden
	}
	return owner, nil
}
