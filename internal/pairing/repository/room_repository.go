package repository

import (
	"context"
	"errors"
	"time"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// RoomRepository definition pairing room writes/queries
// 每個寫入都是對 room 文件的單次寫, 寫完發布完整快照
type RoomRepository interface {
	CreateRoom(ctx context.Context, room *domain.Room) (string, error)
	FindByID(ctx context.Context, roomID string) (*domain.Room, error)
	// FindOpenCandidate 找 userCount==1 且 open 的房間,
	// exposeCount 升序再 timestamp 升序, 取一筆 (公平性排序)
	FindOpenCandidate(ctx context.Context) (*domain.Room, error)
	// IncrementExposeCount 原子遞增, 表示此房間又被offer了一次
	IncrementExposeCount(ctx context.Context, roomID string) error
	// ClaimSeat OPEN→FULL, 佔用條件不符時回 ErrSeatTaken
	ClaimSeat(ctx context.Context, roomID string) error
	// SetOccupancy 設定佔用數與開關狀態, 並刷新活動時間
	SetOccupancy(ctx context.Context, roomID string, userCount int, open bool) error
	// IncrementMessageCount messageCount 僅供顯示, 非對帳依據
	IncrementMessageCount(ctx context.Context, roomID string) error
}

type roomRepository struct {
	coll   *mongo.Collection
	pubsub Publisher
}

// NewMongoRoomRepository create room repository backed by mongo
func NewMongoRoomRepository(db *mongo.Database, pubsub Publisher) RoomRepository {
	return &roomRepository{
		coll:   db.Collection("rooms"),
		pubsub: pubsub,
	}
}

// CreateRoom create room, store 在建立時指派 ID
func (r *roomRepository) CreateRoom(ctx context.Context, room *domain.Room) (string, error) {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	if room.Timestamp == 0 {
		room.Timestamp = time.Now().UnixMilli()
	}
	if _, err := r.coll.InsertOne(ctx, room); err != nil {
		return "", err
	}
	r.publishSnapshot(ctx, room.ID)
	return room.ID, nil
}

// FindByID find room by id
func (r *roomRepository) FindByID(ctx context.Context, roomID string) (*domain.Room, error) {
	var room domain.Room
	err := r.coll.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindOpenCandidate(ctx context.Context) (*domain.Room, error) {
	filter := bson.M{"userCount": 1, "open": true}
	opts := options.FindOne().SetSort(bson.D{
		{Key: "exposeCount", Value: 1},
		{Key: "timestamp", Value: 1},
	})

	var room domain.Room
	err := r.coll.FindOne(ctx, filter, opts).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) IncrementExposeCount(ctx context.Context, roomID string) error {
	update := bson.M{"$inc": bson.M{"exposeCount": 1}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": roomID}, update); err != nil {
		return err
	}
	r.publishSnapshot(ctx, roomID)
	return nil
}

// ClaimSeat 單次條件更新搶第二個座位
// filter 裡帶 userCount==1, 搶輸的那邊 MatchedCount 為 0
func (r *roomRepository) ClaimSeat(ctx context.Context, roomID string) error {
	filter := bson.M{"_id": roomID, "userCount": 1, "open": true}
	update := bson.M{"$set": bson.M{
		"userCount": domain.MaxSeats,
		"timestamp": time.Now().UnixMilli(),
	}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrSeatTaken
	}
	r.publishSnapshot(ctx, roomID)
	return nil
}

func (r *roomRepository) SetOccupancy(ctx context.Context, roomID string, userCount int, open bool) error {
	update := bson.M{"$set": bson.M{
		"userCount": userCount,
		"open":      open,
		"timestamp": time.Now().UnixMilli(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": roomID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	r.publishSnapshot(ctx, roomID)
	return nil
}

func (r *roomRepository) IncrementMessageCount(ctx context.Context, roomID string) error {
	update := bson.M{
		"$inc": bson.M{"messageCount": 1},
		"$set": bson.M{"timestamp": time.Now().UnixMilli()},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": roomID}, update); err != nil {
		return err
	}
	r.publishSnapshot(ctx, roomID)
	return nil
}

// publishSnapshot 每次寫入後推送完整的房間狀態 (非 diff)
func (r *roomRepository) publishSnapshot(ctx context.Context, roomID string) {
	if r.pubsub == nil {
		return
	}
	room, err := r.FindByID(ctx, roomID)
	if err != nil {
		logger.Log.Error("publish room snapshot: fetch failed",
			zap.String("roomID", roomID), zap.Error(err))
		return
	}
	if err := r.pubsub.Publish(RoomChannel(roomID), room); err != nil {
		logger.Log.Error("publish room snapshot failed",
			zap.String("roomID", roomID), zap.Error(err))
	}
}
