package server

import "github.com/labstack/echo/v4"

func RegisterRoutes(e *echo.Echo, h Handlers, mw Middlewares) {
	h.Health.RegisterRoutes(e)
	h.Product.RegisterRoutes(e, mw.Auth)
	h.Auth.RegisterRoutes(e, mw.Auth, mw.RateLimit)
	h.List.RegisterRoutes(e, mw.Auth)
}
