package handler

import (
	"net/http"

	"ecshop/internal/middleware"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// エラーは {"message": "..."} の形でそろえる
type ErrorResponse struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// usecase.HTTPErrorをそのままレスポンスに
func writeError(c echo.Context, log *zap.Logger, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.JSON(he.Status, ErrorResponse{Message: he.Message})
	}

	//500
	return internalError(c, log, err)
}

func internalError(c echo.Context, log *zap.Logger, err error) error {
	log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
}

func getUserIDFromContext(c echo.Context) (string, bool) {
	return middleware.UserID(c)
}
