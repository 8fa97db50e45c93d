package server

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger returns an echo middleware that logs each request
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()
			log.Printf("%s %s -> %d (%dms)",
				req.Method, req.URL.Path, res.Status, time.Since(start).Milliseconds())

			return err
		}
	}
}
