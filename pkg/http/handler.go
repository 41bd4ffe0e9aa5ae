package http

import "github.com/labstack/echo/v4"

// Handler registers its routes on the server's Echo instance. The DI layer
// composes several of these into one server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
