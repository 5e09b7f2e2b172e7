package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicare/emr/internal/platform/auth"
)

// Logger writes one line per request. A panicking handler is logged with
// status 500 and the panic is passed on to Recovery.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			write := func(evt *zerolog.Event, status int) {
				evt.
					Str("request_id", rid).
					Str("user_id", auth.UserIDFromContext(c.Request().Context())).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Int("status", status).
					Dur("latency", time.Since(start)).
					Str("remote_ip", c.RealIP()).
					Msg("request")
			}

			defer func() {
				if r := recover(); r != nil {
					write(logger.Error().Err(fmt.Errorf("panic: %v", r)), http.StatusInternalServerError)
					panic(r)
				}
			}()

			err := next(c)
			if err != nil {
				// Let echo write the error response so the logged status is final.
				c.Error(err)
			}

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			write(evt, c.Response().Status)
			return nil
		}
	}
}
