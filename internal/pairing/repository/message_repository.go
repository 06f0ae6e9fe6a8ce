package repository

import (
	"context"
	"time"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MessageRepository definition room-scoped message set
type MessageRepository interface {
	// Insert 寫入一筆訊息, timestamp 由這裡蓋章 (writer time, 非 client 時鐘)
	Insert(ctx context.Context, msg *domain.Message) (string, error)
	// FindByRoom 取整個房間的訊息, timestamp 升序
	FindByRoom(ctx context.Context, roomID string) ([]domain.Message, error)
	// DeleteByRoom 房間回收時整批刪除
	DeleteByRoom(ctx context.Context, roomID string) error
}

type messageRepository struct {
	coll   *mongo.Collection
	pubsub Publisher
}

// NewMongoMessageRepository create message repository backed by mongo
func NewMongoMessageRepository(db *mongo.Database, pubsub Publisher) MessageRepository {
	return &messageRepository{
		coll:   db.Collection("room_messages"),
		pubsub: pubsub,
	}
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Timestamp = time.Now().UnixMilli()

	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return "", err
	}
	r.publishChange(msg.RoomID, msg)
	return msg.ID, nil
}

func (r *messageRepository) FindByRoom(ctx context.Context, roomID string) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"roomId": roomID}); err != nil {
		return err
	}
	r.publishChange(roomID, nil)
	return nil
}

// publishChange 通知訂閱端訊息集合變了, 訂閱端重拉完整有序列表
func (r *messageRepository) publishChange(roomID string, msg *domain.Message) {
	if r.pubsub == nil {
		return
	}
	if err := r.pubsub.Publish(RoomMessagesChannel(roomID), msg); err != nil {
		logger.Log.Error("publish message change failed",
			zap.String("roomID", roomID), zap.Error(err))
	}
}
