package middleware

// identity.go exposes the identity stored by JWTAuth to handlers.

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user id.  ok is false when the route
// is not behind JWTAuth or the token carried no usable subject.
func UserID(c echo.Context) (id uint64, ok bool) {
	id, ok = c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the role claim of the authenticated user, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}
