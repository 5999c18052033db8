package model

import "time"

// ユーザーごとのリスト（カート / ウィッシュリスト）
type ListKind string

const (
	ListCart     ListKind = "cart"
	ListWishlist ListKind = "wishlist"
)

// 会員。refresh_tokenは1ユーザー1つだけ（空ならログアウト状態）
type User struct {
	ID           string `gorm:"type:varchar(36);primaryKey" bson:"_id"`
	Name         string `gorm:"type:varchar(255);not null" bson:"name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" bson:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" bson:"password"`

	// 発行済みリフレッシュトークンのsha256（平文は保存しない）
	RefreshToken string `gorm:"column:refresh_token;type:varchar(128);not null;default:''" bson:"refreshToken"`

	Cart     []string `gorm:"serializer:json;type:text" bson:"cart"`
	Wishlist []string `gorm:"serializer:json;type:text" bson:"wishlist"`

	Contact `gorm:"embedded" bson:",inline"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// 連絡先（未登録ならnil）
type Contact struct {
	Address *string `gorm:"type:varchar(255)" bson:"address" json:"address"`
	Phone   *string `gorm:"type:varchar(30)" bson:"phone" json:"phone"`
	Pincode *string `gorm:"type:varchar(20)" bson:"pincode" json:"pincode"`
	City    *string `gorm:"type:varchar(100)" bson:"city" json:"city"`
	State   *string `gorm:"type:varchar(100)" bson:"state" json:"state"`
}

// リストの中身を返す
func (u *User) List(kind ListKind) []string {
	switch kind {
	case ListCart:
		return u.Cart
	case ListWishlist:
		return u.Wishlist
	}
	return nil
}

// リストを差し替える
func (u *User) SetList(kind ListKind, items []string) {
	switch kind {
	case ListCart:
		u.Cart = items
	case ListWishlist:
		u.Wishlist = items
	}
}

// 重複なしで追加。追加したらtrue
func AddUnique(items []string, id string) ([]string, bool) {
	for _, it := range items {
		if it == id {
			return items, false
		}
	}
	return append(items, id), true
}

// 指定IDを除く。除いたらtrue
func RemoveItem(items []string, id string) ([]string, bool) {
	out := make([]string, 0, len(items))
	removed := false
	for _, it := range items {
		if it == id {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out, removed
}
