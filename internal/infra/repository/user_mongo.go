package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecshop/internal/domain/model"
	domainrepo "ecshop/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const usersCollection = "users"

type userMongoRepository struct {
	col *mongo.Collection
}

// DI（emailのunique indexもここで作る）
func NewUserMongoRepository(ctx context.Context, db *mongo.Database) (domainrepo.UserRepository, error) {
	col := db.Collection(usersCollection)

	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("users email index: %w", err)
	}

	return &userMongoRepository{col: col}, nil
}

func (r *userMongoRepository) Create(ctx context.Context, user *model.User) error {
	prepareNewUser(user)

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainrepo.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userMongoRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userMongoRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *userMongoRepository) SetRefreshToken(ctx context.Context, id string, token string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"refreshToken": token, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

// 1ドキュメントへのUpdateOneはアトミックなので、filterにcurrentを含めてCASにする
func (r *userMongoRepository) SwapRefreshToken(ctx context.Context, id string, current string, next string) error {
	if current == "" {
		return domainrepo.ErrRefreshTokenMismatch
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "refreshToken": current},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainrepo.ErrRefreshTokenMismatch
	}
	return nil
}

func (r *userMongoRepository) UpdateContact(ctx context.Context, id string, c model.Contact) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"address":   c.Address,
			"phone":     c.Phone,
			"pincode":   c.Pincode,
			"city":      c.City,
			"state":     c.State,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

// $addToSetなので重複しない
func (r *userMongoRepository) AddListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	return r.editList(ctx, id, list, bson.M{"$addToSet": bson.M{string(list): productID}})
}

func (r *userMongoRepository) RemoveListItem(ctx context.Context, id string, list model.ListKind, productID string) ([]string, error) {
	return r.editList(ctx, id, list, bson.M{"$pull": bson.M{string(list): productID}})
}

func (r *userMongoRepository) editList(ctx context.Context, id string, list model.ListKind, update bson.M) ([]string, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{string(list): 1})

	var u model.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, fmt.Errorf("edit %s: %w", list, err)
	}

	items := u.List(list)
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func (r *userMongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userMongoRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, readpref.Primary())
}
