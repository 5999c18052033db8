package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// 画像の最大幅（px）
	maxImageWidth = 1200
	// デコードしてよい画素数の上限（ヘッダの申告値で判定）
	maxImagePixels = 40_000_000
)

var errImageTooLarge = errors.New("image dimensions too large")

// 画像をどこかに置いてURLを返す約束（S3など）
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
	images      ImageStore
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, images ImageStore) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		images:      images,
	}
}

// POST /productsの入力（multipartのフォーム値はそのまま文字列で受ける）
type AddProductInput struct {
	Image              io.Reader
	Name               string
	Category           string
	Brand              string
	Description        string
	YearAdded          string
	Rating             string
	OriginalPrice      string
	DiscountPercentage string
}

// List は全商品（新しい順）
func (u *ProductUsecase) List(ctx context.Context) ([]model.Product, error) {
	items, err := u.productRepo.List(ctx)
	if err != nil {
		return nil, WrapHTTPError(http.StatusInternalServerError, "Internal server error", err)
	}
	if items == nil {
		items = []model.Product{}
	}
	return items, nil
}

// Add は画像をアップロードして商品を登録
func (u *ProductUsecase) Add(ctx context.Context, in AddProductInput) (*model.Product, error) {
	if in.Image == nil {
		return nil, NewHTTPError(http.StatusBadRequest, "No image provided")
	}

	p := &model.Product{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Brand:       strings.TrimSpace(in.Brand),
		Description: strings.TrimSpace(in.Description),
	}
	if p.Name == "" || p.Category == "" || p.Brand == "" || p.Description == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "name, category, brand and description are required")
	}

	var err error
	if p.YearAdded, err = strconv.Atoi(strings.TrimSpace(in.YearAdded)); err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid yearAdded")
	}
	if p.Rating, err = parseNumber(in.Rating); err != nil || p.Rating < 0 || p.Rating > 5 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid rating")
	}
	if p.OriginalPrice, err = parseNumber(in.OriginalPrice); err != nil || p.OriginalPrice < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid originalPrice")
	}
	if p.DiscountPercentage, err = parseNumber(in.DiscountPercentage); err != nil || p.DiscountPercentage < 0 || p.DiscountPercentage > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid discountPercentage")
	}

	body, err := normalizeImage(in.Image)
	if errors.Is(err, errImageTooLarge) {
		return nil, NewHTTPError(http.StatusBadRequest, "image is too large")
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid image")
	}

	key := "products/" + uuid.NewString() + ".jpg"
	url, err := u.images.Upload(ctx, key, body, "image/jpeg")
	if err != nil {
		return nil, WrapHTTPError(http.StatusInternalServerError, "Error uploading image", err)
	}
	p.Image = url

	if err := u.productRepo.Create(ctx, p); err != nil {
		return nil, WrapHTTPError(http.StatusInternalServerError, "Internal server error", err)
	}
	return p, nil
}

// デコードして横幅を抑え、JPEGにそろえる
func normalizeImage(r io.Reader) (*bytes.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// 先にヘッダだけ読んで巨大な画像を弾く
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, errImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// NaN/Infは数値として扱わない
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}
