package handler

import (
	"errors"
	"io"
	"net/http"

	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// /products のHTTP
type ProductHandler struct {
	uc  *usecase.ProductUsecase
	log *zap.Logger
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, log *zap.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

type productCreatedResponse struct {
	Message string `json:"message"`
	Product any    `json:"product"`
}

// 一覧は公開、登録はログイン必須
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, authMW echo.MiddlewareFunc) {
	e.GET("/products", h.list)
	e.POST("/products", h.create, authMW)
}

func (h *ProductHandler) list(c echo.Context) error {
	items, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// multipart: image + 各フィールド
func (h *ProductHandler) create(c echo.Context) error {
	var image io.Reader

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid image"})
		}
		defer f.Close()
		image = f
	case errors.Is(err, http.ErrMissingFile):
		// usecaseで400にする
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid multipart form"})
	}

	p, err := h.uc.Add(c.Request().Context(), usecase.AddProductInput{
		Image:              image,
		Name:               c.FormValue("name"),
		Category:           c.FormValue("category"),
		Brand:              c.FormValue("brand"),
		Description:        c.FormValue("description"),
		YearAdded:          c.FormValue("yearAdded"),
		Rating:             c.FormValue("rating"),
		OriginalPrice:      c.FormValue("originalPrice"),
		DiscountPercentage: c.FormValue("discountPercentage"),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, productCreatedResponse{Message: "Product added successfully", Product: p})
}
