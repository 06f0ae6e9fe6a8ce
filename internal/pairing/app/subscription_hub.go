package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/internal/pairing/repository"
	"pair_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// ChangeFeed store 的 subscribe-for-changes 原語
// 每個 payload 帶完整目前狀態 (非 diff), 至少送達一次
type ChangeFeed interface {
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error
}

// AttachOptions 訂閱一個房間時的本地狀態
type AttachOptions struct {
	// LocalUID 本地使用者, vacated 時清掉他的 currentRoomId
	LocalUID string
	// Provisional 剛建立尚未確認配對的房;
	// 這種房被佔滿或被關閉視為非預期狀態, 觸發 reset
	Provisional bool
}

// SubscriptionHub 幫每個房間開兩條長駐 listener (room 文件 + 訊息集合),
// 把 store 推來的快照對帳成本地事件流
type SubscriptionHub struct {
	feed      ChangeFeed
	roomRepo  repository.RoomRepository
	msgRepo   repository.MessageRepository
	userRepo  repository.UserRepository
	directory *DirectoryCache
}

// NewSubscriptionHub init subscription hub
func NewSubscriptionHub(
	feed ChangeFeed,
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	directory *DirectoryCache,
) *SubscriptionHub {
	return &SubscriptionHub{
		feed:      feed,
		roomRepo:  roomRepo,
		msgRepo:   msgRepo,
		userRepo:  userRepo,
		directory: directory,
	}
}

// RoomSession 一個房間的訂閱, Cancel 後不會再有事件
type RoomSession struct {
	RoomID string

	events chan domain.Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Events 對帳後的事件流, Cancel 後關閉
func (s *RoomSession) Events() <-chan domain.Event {
	return s.events
}

// Cancel 拆掉兩條 listener; 冪等, 回傳時 loop 已退出,
// 之後不會再有任何事件送出
func (s *RoomSession) Cancel() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
		close(s.events)
	})
}

// Attach 訂閱房間文件與訊息集合, 先送一份初始快照再跟著 push 走
// listener 建立失敗對這個 room session 是致命的, caller 要重跑配對
func (h *SubscriptionHub) Attach(ctx context.Context, roomID string, opts AttachOptions) (*RoomSession, error) {
	sessCtx, cancel := context.WithCancel(ctx)

	s := &RoomSession{
		RoomID: roomID,
		events: make(chan domain.Event, 16),
		cancel: cancel,
	}

	roomCh := make(chan []byte, 8)
	msgCh := make(chan []byte, 8)

	err := h.feed.Subscribe(sessCtx, repository.RoomChannel(roomID), func(payload []byte) {
		select {
		case roomCh <- payload:
		case <-sessCtx.Done():
		}
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: room listener: %v", domain.ErrStoreUnavailable, err)
	}

	err = h.feed.Subscribe(sessCtx, repository.RoomMessagesChannel(roomID), func(payload []byte) {
		select {
		case msgCh <- payload:
		case <-sessCtx.Done():
		}
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: message listener: %v", domain.ErrStoreUnavailable, err)
	}

	s.wg.Add(1)
	go h.reconcileLoop(sessCtx, s, opts, roomCh, msgCh)

	return s, nil
}

func (h *SubscriptionHub) reconcileLoop(ctx context.Context, s *RoomSession, opts AttachOptions, roomCh, msgCh <-chan []byte) {
	defer s.wg.Done()

	// 初始快照: 訂閱當下的完整狀態先送一輪
	if room, err := h.roomRepo.FindByID(ctx, s.RoomID); err == nil {
		h.reconcileRoom(ctx, s, opts, room)
	} else {
		logger.Log.Error("initial room snapshot failed",
			zap.String("roomID", s.RoomID), zap.Error(err))
	}
	h.reconcileMessages(ctx, s)

	for {
		select {
		case payload := <-roomCh:
			room, err := h.decodeRoom(ctx, s.RoomID, payload)
			if err != nil {
				logger.Log.Error("room snapshot decode failed",
					zap.String("roomID", s.RoomID), zap.Error(err))
				continue
			}
			h.reconcileRoom(ctx, s, opts, room)

		case <-msgCh:
			h.reconcileMessages(ctx, s)

		case <-ctx.Done():
			return
		}
	}
}

// decodeRoom push payload 就是完整快照; 壞掉時退回 store 重讀
func (h *SubscriptionHub) decodeRoom(ctx context.Context, roomID string, payload []byte) (*domain.Room, error) {
	var room domain.Room
	if err := json.Unmarshal(payload, &room); err == nil && room.ID != "" {
		return &room, nil
	}
	return h.roomRepo.FindByID(ctx, roomID)
}

// reconcileRoom 併入一份房間快照, 偵測 vacated / 非預期狀態
func (h *SubscriptionHub) reconcileRoom(ctx context.Context, s *RoomSession, opts AttachOptions, room *domain.Room) {
	h.emit(ctx, s, domain.Event{Kind: domain.EventRoom, Room: room})

	if room.UserCount == 0 {
		// 房間空了: 清掉本地使用者的 currentRoomId, 通知 caller 重跑配對
		if opts.LocalUID != "" {
			if err := h.userRepo.SetCurrentRoom(ctx, opts.LocalUID, ""); err != nil {
				logger.Log.Error("clear currentRoomId failed",
					zap.String("uid", opts.LocalUID), zap.Error(err))
			}
		}
		h.emit(ctx, s, domain.Event{Kind: domain.EventReset, Reason: domain.ResetVacated})
		return
	}

	if opts.Provisional && (room.UserCount >= domain.MaxSeats || !room.Open) {
		h.emit(ctx, s, domain.Event{Kind: domain.EventReset, Reason: domain.ResetUnexpectedState})
	}
}

// reconcileMessages 重拉完整有序訊息列表
// 快照順序不可信, 這裡防禦性地再排一次; 沒看過的作者先解析進 directory
func (h *SubscriptionHub) reconcileMessages(ctx context.Context, s *RoomSession) {
	messages, err := h.msgRepo.FindByRoom(ctx, s.RoomID)
	if err != nil {
		logger.Log.Error("message snapshot failed",
			zap.String("roomID", s.RoomID), zap.Error(err))
		return
	}

	domain.SortMessages(messages)

	unseen := make([]string, 0, 2)
	seen := make(map[string]bool, 2)
	for _, msg := range messages {
		if seen[msg.UID] {
			continue
		}
		seen[msg.UID] = true
		if _, ok := h.directory.Lookup(msg.UID); !ok {
			unseen = append(unseen, msg.UID)
		}
	}
	if len(unseen) > 0 {
		h.directory.Resolve(ctx, unseen)
	}

	h.emit(ctx, s, domain.Event{Kind: domain.EventMessages, Messages: messages})
}

func (h *SubscriptionHub) emit(ctx context.Context, s *RoomSession, ev domain.Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
