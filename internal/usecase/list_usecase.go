package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
)

// ListUsecase は /cart と /wishlist の業務ロジックです。
// どちらもユーザーに埋め込まれた商品IDの集合なので、kindで切り替えます。
type ListUsecase struct {
	userRepo    repo.UserRepository
	productRepo repo.ProductRepository
}

func NewListUsecase(userRepo repo.UserRepository, productRepo repo.ProductRepository) *ListUsecase {
	return &ListUsecase{
		userRepo:    userRepo,
		productRepo: productRepo,
	}
}

// リストのレスポンス
type ListResponse struct {
	Items []string `json:"items"`
}

// Get は現在のリスト
func (u *ListUsecase) Get(ctx context.Context, userID string, kind model.ListKind) (ListResponse, error) {
	if userID == "" {
		return ListResponse{}, NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ListResponse{}, NewHTTPError(http.StatusNotFound, "User not found")
		}
		return ListResponse{}, WrapHTTPError(http.StatusInternalServerError, "Internal server error", err)
	}

	items := user.List(kind)
	if items == nil {
		items = []string{}
	}
	return ListResponse{Items: items}, nil
}

// Add は商品を追加（既にあれば何もしない）
func (u *ListUsecase) Add(ctx context.Context, userID string, kind model.ListKind, productID string) (ListResponse, error) {
	productID = strings.TrimSpace(productID)
	if userID == "" {
		return ListResponse{}, NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	if productID == "" {
		return ListResponse{}, NewHTTPError(http.StatusBadRequest, "productId is required")
	}

	// 存在しない商品は入れない
	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return ListResponse{}, NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return ListResponse{}, WrapHTTPError(http.StatusInternalServerError, "Internal server error", err)
	}

	items, err := u.userRepo.AddListItem(ctx, userID, kind, productID)
	if err != nil {
		return ListResponse{}, u.mapUserErr(err)
	}
	return ListResponse{Items: items}, nil
}

// Remove は商品を外す（無ければ何もしない）
func (u *ListUsecase) Remove(ctx context.Context, userID string, kind model.ListKind, productID string) (ListResponse, error) {
	productID = strings.TrimSpace(productID)
	if userID == "" {
		return ListResponse{}, NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	if productID == "" {
		return ListResponse{}, NewHTTPError(http.StatusBadRequest, "productId is required")
	}

	items, err := u.userRepo.RemoveListItem(ctx, userID, kind, productID)
	if err != nil {
		return ListResponse{}, u.mapUserErr(err)
	}
	return ListResponse{Items: items}, nil
}

func (u *ListUsecase) mapUserErr(err error) error {
	if errors.Is(err, repo.ErrUserNotFound) {
		return NewHTTPError(http.StatusNotFound, "User not found")
	}
	return WrapHTTPError(http.StatusInternalServerError, "Internal server error", err)
}
