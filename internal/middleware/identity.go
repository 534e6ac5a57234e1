package middleware

// identity.go defines helpers shared across middleware files.  currentUserID
// reads the user ID that JWTAuth stored in the Echo context and renders it
// for use in cache and rate-limit keys.  Unauthenticated requests map to
// "anon".

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case uint64:
        if v != 0 {
            return strconv.FormatUint(v, 10)
        }
    case string:
        if v != "" {
            return v
        }
    }
    return "anon"
}
