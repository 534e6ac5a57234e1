package middleware

import (
    "time"

    "github.com/charmbracelet/log"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/exam-seating/internal/logging"
)

// RequestLogger attaches l to every request context and logs one line per
// request once the handler returns.
func RequestLogger(l *log.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()
            c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), l)))

            err := next(c)
            if err != nil {
                c.Error(err) // let echo write the error response so the status is final
            }
            l.Info("http: request",
                "method", req.Method,
                "path", req.URL.Path,
                "status", c.Response().Status,
                "elapsed", time.Since(start).Round(time.Millisecond),
                "ip", c.RealIP(),
            )
            return nil
        }
    }
}
