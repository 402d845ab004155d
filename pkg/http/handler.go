package http

import "github.com/labstack/echo/v4"

// Handler mounts a group of routes on the server's echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HandlerFunc lets a plain function serve as a Handler.
type HandlerFunc func(e *echo.Echo)

func (f HandlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }

// Handlers mounts each member in order. Nil members are skipped.
type Handlers []Handler

func (hs Handlers) RegisterRoutes(e *echo.Echo) {
	for _, h := range hs {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}
