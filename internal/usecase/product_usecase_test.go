package usecase

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"ecshop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ヘッダの幅・高さだけ書き換えたPNG（中身は1x1のまま）
func pngWithDeclaredSize(t *testing.T, w, h uint32) []byte {
	t.Helper()
	b := pngBytes(t, 1, 1)
	// signature(8) + length(4) + "IHDR"(4) の後ろが幅と高さ
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func validProductInput(t *testing.T, w int) AddProductInput {
	return AddProductInput{
		Image:              bytes.NewReader(pngBytes(t, w, 20)),
		Name:               "Phone",
		Category:           "mobiles",
		Brand:              "Acme",
		Description:        "A phone",
		YearAdded:          "2024",
		Rating:             "4.5",
		OriginalPrice:      "19999",
		DiscountPercentage: "10",
	}
}

func TestProductUsecase_List(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	products.On("List", ctx).Return(nil, nil).Once()
	products.On("List", ctx).Return(nil, errors.New("boom")).Once()

	uc := NewProductUsecase(products, &fakeImageStore{})

	items, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Product{}, items)

	_, err = uc.List(ctx)
	assertHTTPStatus(t, err, http.StatusInternalServerError)
}

func TestProductUsecase_Add(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	store := &fakeImageStore{}

	products.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)

	p, err := NewProductUsecase(products, store).Add(ctx, validProductInput(t, 2400))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(store.key, "products/"))
	assert.True(t, strings.HasSuffix(store.key, ".jpg"))
	assert.Equal(t, "image/jpeg", store.contentType)
	assert.Equal(t, "https://cdn.example.com/"+store.key, p.Image)

	// 幅は1200に縮む（縦横比は維持）
	img, err := jpeg.Decode(bytes.NewReader(store.body))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())

	assert.Equal(t, "Phone", p.Name)
	assert.Equal(t, 2024, p.YearAdded)
	assert.Equal(t, 4.5, p.Rating)
	assert.Equal(t, 19999.0, p.OriginalPrice)
	assert.Equal(t, 10.0, p.DiscountPercentage)
	products.AssertExpectations(t)
}

func TestProductUsecase_AddKeepsSmallImage(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	store := &fakeImageStore{}
	products.On("Create", ctx, mock.Anything).Return(nil)

	_, err := NewProductUsecase(products, store).Add(ctx, validProductInput(t, 300))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(store.body))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestProductUsecase_AddValidation(t *testing.T) {
	cases := map[string]func(in *AddProductInput){
		"no image":        func(in *AddProductInput) { in.Image = nil },
		"no name":         func(in *AddProductInput) { in.Name = " " },
		"bad year":        func(in *AddProductInput) { in.YearAdded = "last year" },
		"rating too high": func(in *AddProductInput) { in.Rating = "7" },
		"nan rating":      func(in *AddProductInput) { in.Rating = "NaN" },
		"negative price":  func(in *AddProductInput) { in.OriginalPrice = "-1" },
		"bad discount":    func(in *AddProductInput) { in.DiscountPercentage = "150" },
		"not an image":    func(in *AddProductInput) { in.Image = strings.NewReader("plain text") },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			products := new(MockProductRepository)
			store := &fakeImageStore{}
			in := validProductInput(t, 100)
			mutate(&in)

			_, err := NewProductUsecase(products, store).Add(context.Background(), in)
			assertHTTPStatus(t, err, http.StatusBadRequest)
			assert.Empty(t, store.key)
			products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProductUsecase_AddRejectsHugeDeclaredImage(t *testing.T) {
	products := new(MockProductRepository)
	store := &fakeImageStore{}
	in := validProductInput(t, 100)
	in.Image = bytes.NewReader(pngWithDeclaredSize(t, 30000, 30000))

	_, err := NewProductUsecase(products, store).Add(context.Background(), in)
	assertHTTPStatus(t, err, http.StatusBadRequest)
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, "image is too large", he.Message)
	assert.Empty(t, store.key)
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductUsecase_AddNoImageMessage(t *testing.T) {
	in := validProductInput(t, 100)
	in.Image = nil

	_, err := NewProductUsecase(new(MockProductRepository), &fakeImageStore{}).Add(context.Background(), in)
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, "No image provided", he.Message)
}

func TestProductUsecase_AddUploadFailure(t *testing.T) {
	products := new(MockProductRepository)
	store := &fakeImageStore{err: errors.New("s3 down")}

	_, err := NewProductUsecase(products, store).Add(context.Background(), validProductInput(t, 100))
	assertHTTPStatus(t, err, http.StatusInternalServerError)
	assert.ErrorContains(t, err, "s3 down")
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
