package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/parking-reservation/internal/utils" // pagination metadata
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64: // JWT numeric claims decode as float64
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim stored by the JWT middleware.  An
// empty string is returned when the claim is missing or malformed.
func getRole(c echo.Context) string {
    if role, ok := c.Get("role").(string); ok {
        return role
    }
    return ""
}

// isAdmin reports whether the current request carries the ADMIN role.
func isAdmin(c echo.Context) bool { return getRole(c) == "ADMIN" }

// pageMeta reads the page/limit query parameters and normalizes them.
// The returned meta carries total=0; callers recompute it with the
// real total once the count query has run.
func pageMeta(c echo.Context) utils.PageMeta {
    page, _ := strconv.Atoi(c.QueryParam("page"))
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    return utils.Paginate(page, limit, 0)
}
