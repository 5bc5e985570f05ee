package bootstrap

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type statusResponse struct {
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

// Handler exposes the bootstrap status and the retry intent.
type Handler struct {
	loader *Loader
}

func NewHandler(loader *Loader) *Handler {
	return &Handler{loader: loader}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/bootstrap", h.GetStatus)
	api.POST("/bootstrap/retry", h.Retry)
}

func (h *Handler) GetStatus(c echo.Context) error {
	state, errMsg := h.loader.Status()
	return c.JSON(http.StatusOK, statusResponse{State: state, Error: errMsg})
}

func (h *Handler) Retry(c echo.Context) error {
	if err := h.loader.Retry(); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

// Gate rejects data requests with 503 until the initial load has completed.
// The bootstrap endpoints themselves stay reachable so clients can observe
// progress and retry. Only the exact routes registered by RegisterRoutes
// bypass the gate.
func Gate(loader *Loader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p := c.Path(); strings.HasSuffix(p, "/bootstrap") || strings.HasSuffix(p, "/bootstrap/retry") {
				return next(c)
			}
			if !loader.Ready() {
				state, errMsg := loader.Status()
				return c.JSON(http.StatusServiceUnavailable, statusResponse{State: state, Error: errMsg})
			}
			return next(c)
		}
	}
}
