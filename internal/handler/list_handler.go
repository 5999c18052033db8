package handler

import (
	"net/http"

	"ecshop/internal/domain/model"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// /cart と /wishlist のHTTP
type ListHandler struct {
	uc  *usecase.ListUsecase
	log *zap.Logger
}

// DI
func NewListHandler(uc *usecase.ListUsecase, log *zap.Logger) *ListHandler {
	return &ListHandler{uc: uc, log: log}
}

type listItemRequest struct {
	ProductID string `json:"productId"`
}

// /cart, /wishlist を登録（どちらもログイン必須）
func (h *ListHandler) RegisterRoutes(e *echo.Echo, authMW echo.MiddlewareFunc) {
	for _, kind := range []model.ListKind{model.ListCart, model.ListWishlist} {
		g := e.Group("/"+string(kind), authMW)
		g.GET("", h.get(kind))
		g.POST("/add", h.add(kind))
		g.POST("/remove", h.remove(kind))
	}
}

func (h *ListHandler) get(kind model.ListKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := getUserIDFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		}

		out, err := h.uc.Get(c.Request().Context(), userID, kind)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (h *ListHandler) add(kind model.ListKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := getUserIDFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		}

		var req listItemRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		}

		out, err := h.uc.Add(c.Request().Context(), userID, kind, req.ProductID)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (h *ListHandler) remove(kind model.ListKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := getUserIDFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		}

		var req listItemRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		}

		out, err := h.uc.Remove(c.Request().Context(), userID, kind, req.ProductID)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}
