package app

import (
	"context"
	"fmt"
	"time"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/internal/pairing/repository"
	errprocess "pair_chat_service/pkg/err"
	"pair_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// LifecycleUseCase 房間佔用狀態機 EMPTY(0) → OPEN(1) → FULL(2) → CLOSED
// 狀態本身存在 store, 這裡只負責轉移的寫入; 每次轉移是對 room 文件的單次寫,
// 不碰 user 文件 (currentRoomId 由 caller 同步)
type LifecycleUseCase struct {
	roomRepo repository.RoomRepository
	msgRepo  repository.MessageRepository
}

// NewLifecycleUseCase init room lifecycle use case
func NewLifecycleUseCase(roomRepo repository.RoomRepository, msgRepo repository.MessageRepository) *LifecycleUseCase {
	return &LifecycleUseCase{
		roomRepo: roomRepo,
		msgRepo:  msgRepo,
	}
}

// Create EMPTY → OPEN, 建立者先佔一個座位
func (uc *LifecycleUseCase) Create(ctx context.Context, name string) (*domain.Room, error) {
	room := &domain.Room{
		Name:         name,
		Timestamp:    time.Now().UnixMilli(),
		UserCount:    1,
		ExposeCount:  0,
		MessageCount: 0,
		Open:         true,
	}

	id, err := uc.roomRepo.CreateRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	room.ID = id
	return room, nil
}

// Join OPEN → FULL, 寫入時佔用數不是 1 則回 ErrSeatTaken
func (uc *LifecycleUseCase) Join(ctx context.Context, roomID string) error {
	return uc.roomRepo.ClaimSeat(ctx, roomID)
}

// Leave FULL → OPEN 或 OPEN → EMPTY
// 降到零人時房間永久退役 (open=false), 訊息整批刪除; 退役房不再被配對
func (uc *LifecycleUseCase) Leave(ctx context.Context, roomID string) error {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return err
	}

	switch {
	case room.UserCount >= domain.MaxSeats:
		return uc.roomRepo.SetOccupancy(ctx, roomID, room.UserCount-1, true)

	case room.UserCount == 1:
		if err := uc.roomRepo.SetOccupancy(ctx, roomID, 0, false); err != nil {
			return err
		}
		// 訊息刪除失敗不影響退役, 只記錄
		if err := uc.msgRepo.DeleteByRoom(ctx, roomID); err != nil {
			logger.Log.Error("retire room: message cleanup failed",
				zap.String("roomID", roomID), zap.Error(err))
		}
		return nil

	default:
		return errprocess.Set(fmt.Sprintf("leave on empty room %s", roomID))
	}
}
