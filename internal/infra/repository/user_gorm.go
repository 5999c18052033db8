package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecshop/internal/domain/model"
	domainrepo "ecshop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでSTORE_DRIVER=postgresのときにnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	prepareNewUser(user)

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return domainrepo.ErrEmailAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userGormRepository) findOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// refresh_tokenを上書き（ログイン/ログアウト）
func (r *userGormRepository) SetRefreshToken(ctx context.Context, id string, token string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"refresh_token": token, "updated_at": time.Now()})

	if res.Error != nil {
		return fmt.Errorf("set refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

// 条件付きUPDATEで差し替える（0件なら他のリクエストが先に回転させた）
func (r *userGormRepository) SwapRefreshToken(ctx context.Context, id string, current string, next string) error {
	if current == "" {
		return domainrepo.ErrRefreshTokenMismatch
	}

	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, current).
		Updates(map[string]interface{}{"refresh_token": next, "updated_at": time.Now()})

	if res.Error != nil {
		return fmt.Errorf("swap refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrRefreshTokenMismatch
	}
	return nil
}

// 連絡先を上書き
func (r *userGormRepository) UpdateContact(ctx context.Context, id string, c model.Contact) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"address":    c.Address,
			"phone":      c.Phone,
			"pincode":    c.Pincode,
			"city":       c.City,
			"state":      c.State,
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return fmt.Errorf("update contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userGormRepository) AddListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	return r.editList(ctx, id, list, func(items []string) ([]string, bool) {
		return model.AddUnique(items, productID)
	})
}

func (r *userGormRepository) RemoveListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	return r.editList(ctx, id, list, func(items []string) ([]string, bool) {
		return model.RemoveItem(items, productID)
	})
}

// 行ロック（FOR UPDATE）してからリストを書き換える
func (r *userGormRepository) editList(ctx context.Context, id string, list model.ListKind, edit func([]string) ([]string, bool)) ([]string, error) {
	var out []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&u).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainrepo.ErrUserNotFound
			}
			return err
		}

		items, changed := edit(u.List(list))
		if items == nil {
			items = []string{}
		}
		out = items
		if !changed {
			return nil
		}

		u.SetList(list, items)
		u.UpdatedAt = time.Now()
		return tx.Model(&u).Select(string(list), "updated_at").Updates(&u).Error
	})
	if err != nil {
		if errors.Is(err, domainrepo.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("edit %s: %w", list, err)
	}
	return out, nil
}

func (r *userGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userGormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// TranslateErrorが効かない経路でもpgのエラーコードで判定する
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ID採番と初期値（リストは空配列、refreshは空＝未ログイン）
func prepareNewUser(user *model.User) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Cart == nil {
		user.Cart = []string{}
	}
	if user.Wishlist == nil {
		user.Wishlist = []string{}
	}
	user.RefreshToken = ""

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}
