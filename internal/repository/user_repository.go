package repository

import (
	"context"
	"errors"

	"ecshop/internal/domain/model"
)

var (
	// ユーザーが見つかりませんを統一
	ErrUserNotFound = errors.New("user not found")
	// email一意制約違反
	ErrEmailAlreadyExists = errors.New("email already exists")
	// 保存済みのrefresh tokenが期待値と違う（CAS失敗）
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
)

// 保存・取得を約束
type UserRepository interface {
	// 新規ユーザー作成（IDはストアが採番する）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// メールからユーザーを1件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// refresh tokenを上書き（""でクリア）
	SetRefreshToken(ctx context.Context, id string, token string) error
	// 保存値がcurrentのときだけnextに差し替える
	SwapRefreshToken(ctx context.Context, id string, current string, next string) error
	// 連絡先5項目を上書き
	UpdateContact(ctx context.Context, id string, contact model.Contact) error
	// カート/ウィッシュリストに追加（重複なし）して結果を返す
	AddListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error)
	// カート/ウィッシュリストから削除して結果を返す
	RemoveListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error)
	Delete(ctx context.Context, id string) error
	// 疎通確認
	Ping(ctx context.Context) error
}
