package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	HeaderUserID    = "Ax-User-Id"
	HeaderUserRole  = "Ax-User-Role"
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"

	// set on responses that repeat an already applied operation
	HeaderReplay = "Ax-Idempotent-Replay"

	RoleBorrower = "borrower"
	RoleLender   = "lender"
	RoleAdmin    = "admin"

	ctxUserID  = "ax.user_id"
	ctxRole    = "ax.user_role"
	ctxIdemKey = "ax.idempotency_key"
)

var reUserID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

func validUserID(id string) bool { return reUserID.MatchString(id) }

func validRole(r string) bool {
	switch r {
	case RoleBorrower, RoleLender, RoleAdmin:
		return true
	}
	return false
}

// Identity trusts the gateway headers and puts the caller on the context.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			userID := strings.TrimSpace(req.Header.Get(HeaderUserID))
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing Ax-User-Id", "code": "forbidden"})
			}
			if !validUserID(userID) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid Ax-User-Id", "code": "validation_error"})
			}
			role := strings.ToLower(strings.TrimSpace(req.Header.Get(HeaderUserRole)))
			if !validRole(role) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid Ax-User-Role", "code": "validation_error"})
			}
			c.Set(ctxUserID, userID)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}

// RequireRole must run after Identity.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			for _, r := range roles {
				if r == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "role not allowed", "code": "forbidden"})
		}
	}
}

func UserID(c echo.Context) string {
	v, _ := c.Get(ctxUserID).(string)
	return v
}

func Role(c echo.Context) string {
	v, _ := c.Get(ctxRole).(string)
	return v
}

// IdempotencyKey is the request id the engine dedupes on. It is set by the
// idempotency middleware; without it the header is read and checked directly.
func IdempotencyKey(c echo.Context) string {
	if v, ok := c.Get(ctxIdemKey).(string); ok && v != "" {
		return v
	}
	id := strings.TrimSpace(c.Request().Header.Get(HeaderRequestID))
	if !validReqID(id) {
		return ""
	}
	return id
}
