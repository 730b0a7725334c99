package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theatre-reservation/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the caller in the
// context as "user_id" (uint64) and "role" (string).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            userID, role, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return unauthorized(c, "invalid or expired token")
            }
            c.Set("user_id", userID)
            c.Set("role", role)
            return next(c)
        }
    }
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": msg})
}
