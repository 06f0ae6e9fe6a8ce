package repository

import (
	"context"
	"errors"

	"pair_chat_service/internal/account/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrAccountNotFound account 不存在
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository 定義 account 集合的存取
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, accountID string) (*domain.Account, error)
}

type mongoAccountRepository struct {
	col *mongo.Collection
}

// NewMongoAccountRepository create mongo account repository
func NewMongoAccountRepository(db *mongo.Database) AccountRepository {
	return &mongoAccountRepository{col: db.Collection("accounts")}
}

func (r *mongoAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.col.InsertOne(ctx, account)
	return err
}

func (r *mongoAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *mongoAccountRepository) FindByID(ctx context.Context, accountID string) (*domain.Account, error) {
	var account domain.Account
	err := r.col.FindOne(ctx, bson.M{"_id": accountID}).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
