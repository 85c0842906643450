package middleware

// identity.go provides the user identity helper shared by the caching
// and rate-limiting middleware.  It favors the "user_id" value placed
// in context by JWTAuth and falls back to the raw JWT claims when a
// different authentication middleware stored the parsed token instead.

import (
    "fmt"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// currentUserID extracts a stable user identifier for keying purposes.
// It returns "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        switch id := v.(type) {
        case string:
            if id != "" {
                return id
            }
        case float64:
            return fmt.Sprintf("%.0f", id)
        }
    }
    if tok, ok := c.Get("user").(*jwt.Token); ok {
        if cl, ok := tok.Claims.(jwt.MapClaims); ok {
            if v, ok := cl["sub"].(string); ok && v != "" {
                return v
            }
        }
    }
    return "anon"
}
