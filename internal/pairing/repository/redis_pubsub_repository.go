package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"pair_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// RoomChannel pub/sub channel carrying full room snapshots
func RoomChannel(roomID string) string {
	return "chat:room:" + roomID
}

// RoomMessagesChannel pub/sub channel carrying message-set change markers
func RoomMessagesChannel(roomID string) string {
	return "chat:room:" + roomID + ":messages"
}

// Publisher 寫入端需要的最小介面
type Publisher interface {
	Publish(channel string, message interface{}) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish 將 message 序列化後, 發布到指定 channel
func (r *RedisPubSub) Publish(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe 訂閱 channel, 每個 payload 呼叫 handler, ctx 取消時關閉訂閱
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(m.Payload))
			case <-ctx.Done():
				if err := sub.Close(); err != nil {
					logger.Log.Errorf(fmt.Sprintf("%s, sub close err", channel), err)
				}
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				return
			}
		}
	}()
	return nil
}
