package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ストアの疎通確認
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
	log   *zap.Logger
}

func NewHealthHandler(store Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, log: log}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.index)
	e.GET("/healthz", h.healthz)
}

// エンドポイント一覧
func (h *HealthHandler) index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"/products":           "Get all products",
		"/auth/signup":        "Register a new user",
		"/auth/login":         "Log in and receive an access token",
		"/auth/refresh":       "Rotate the refresh token cookie",
		"/auth/logout":        "Log out",
		"/auth/user":          "Get the current user",
		"/auth/updateContact": "Update contact details",
		"/cart":               "Get, add or remove cart items",
		"/wishlist":           "Get, add or remove wishlist items",
	})
}

func (h *HealthHandler) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("healthz: store ping failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
