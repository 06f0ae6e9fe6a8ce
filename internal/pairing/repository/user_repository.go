package repository

import (
	"context"
	"errors"
	"time"

	"pair_chat_service/internal/pairing/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository definition user documents owned fields
// identity 歸認證提供者, 這裡只動 currentRoomId / timestamp / rating
type UserRepository interface {
	FindByID(ctx context.Context, uid string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	SetCurrentRoom(ctx context.Context, uid, roomID string) error
	// Touch 刷新 last-activity
	Touch(ctx context.Context, uid string) error
	UpdateRating(ctx context.Context, uid string, rating float64) error
	InsertRating(ctx context.Context, entry *domain.RatingEntry) (string, error)
	// FindRecentRatings timestamp 降序取最近 limit 筆
	FindRecentRatings(ctx context.Context, uid string, limit int64) ([]domain.RatingEntry, error)
	// FindProfile 一次性撈顯示資料, 不存在回 Found=false 而非錯誤
	FindProfile(ctx context.Context, uid string) (domain.Profile, error)
}

type userRepository struct {
	usersColl   *mongo.Collection
	ratingsColl *mongo.Collection
}

// NewMongoUserRepository create user repository backed by mongo
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		usersColl:   db.Collection("users"),
		ratingsColl: db.Collection("user_ratings"),
	}
}

func (r *userRepository) FindByID(ctx context.Context, uid string) (*domain.User, error) {
	var user domain.User
	err := r.usersColl.FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user.Timestamp == 0 {
		user.Timestamp = time.Now().UnixMilli()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.usersColl.ReplaceOne(ctx, bson.M{"_id": user.UID}, user, opts)
	return err
}

func (r *userRepository) SetCurrentRoom(ctx context.Context, uid, roomID string) error {
	update := bson.M{"$set": bson.M{
		"currentRoomId": roomID,
		"timestamp":     time.Now().UnixMilli(),
	}}
	opts := options.Update().SetUpsert(true)
	_, err := r.usersColl.UpdateOne(ctx, bson.M{"_id": uid}, update, opts)
	return err
}

func (r *userRepository) Touch(ctx context.Context, uid string) error {
	update := bson.M{"$set": bson.M{"timestamp": time.Now().UnixMilli()}}
	_, err := r.usersColl.UpdateOne(ctx, bson.M{"_id": uid}, update)
	return err
}

func (r *userRepository) UpdateRating(ctx context.Context, uid string, rating float64) error {
	update := bson.M{"$set": bson.M{"rating": rating}}
	_, err := r.usersColl.UpdateOne(ctx, bson.M{"_id": uid}, update)
	return err
}

func (r *userRepository) InsertRating(ctx context.Context, entry *domain.RatingEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}
	if _, err := r.ratingsColl.InsertOne(ctx, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (r *userRepository) FindRecentRatings(ctx context.Context, uid string, limit int64) ([]domain.RatingEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cur, err := r.ratingsColl.Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, err
	}

	var entries []domain.RatingEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *userRepository) FindProfile(ctx context.Context, uid string) (domain.Profile, error) {
	user, err := r.FindByID(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{UID: uid, Found: false}, nil
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{UID: uid, UserName: user.UserName, Found: true}, nil
}
