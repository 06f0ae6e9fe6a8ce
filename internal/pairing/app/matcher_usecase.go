package app

import (
	"context"
	"errors"
	"fmt"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/internal/pairing/repository"
	"pair_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// claimAttempts 搶座位輸了重查一次, 再沒有就自己開房
const claimAttempts = 2

// MatchResult 配對結果, Created 表示是新開的房 (尚未確認配對成立)
type MatchResult struct {
	Room    *domain.Room
	Created bool
}

// MatcherUseCase 幫 visitor 找一個只剩一個座位的房, 沒有就建一個
type MatcherUseCase struct {
	roomRepo  repository.RoomRepository
	userRepo  repository.UserRepository
	lifecycle *LifecycleUseCase
}

// NewMatcherUseCase init matcher use case
func NewMatcherUseCase(
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	lifecycle *LifecycleUseCase,
) *MatcherUseCase {
	return &MatcherUseCase{
		roomRepo:  roomRepo,
		userRepo:  userRepo,
		lifecycle: lifecycle,
	}
}

// FindOrCreateSeat 配對入口
// 已有 currentRoomId 時直接回原房 (重連冪等);
// 否則照公平性排序找 candidate, 增加 exposeCount 後搶第二個座位,
// 搶輸重查一次, 還是沒有就建新房; 最後把房號記回 user 文件
func (uc *MatcherUseCase) FindOrCreateSeat(ctx context.Context, user *domain.User) (*MatchResult, error) {
	if user != nil && user.CurrentRoomID != "" {
		room, err := uc.roomRepo.FindByID(ctx, user.CurrentRoomID)
		if err == nil && room.Open && room.UserCount > 0 {
			return &MatchResult{Room: room, Created: false}, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// 記錄的房間已退役或不存在, 當作沒配對過
		logger.Log.Warn("recorded room unusable, rematching",
			zap.String("uid", user.UID), zap.String("roomID", user.CurrentRoomID))
	}

	for i := 0; i < claimAttempts; i++ {
		candidate, err := uc.roomRepo.FindOpenCandidate(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}

		// 此房又被 offer 了一次; 失敗只記錄, 不影響配對
		if err := uc.roomRepo.IncrementExposeCount(ctx, candidate.ID); err != nil {
			logger.Log.Error("increment exposeCount failed",
				zap.String("roomID", candidate.ID), zap.Error(err))
		}

		err = uc.lifecycle.Join(ctx, candidate.ID)
		if errors.Is(err, domain.ErrSeatTaken) {
			// 搶輸了, 換下一個 candidate
			continue
		}
		if err != nil {
			return nil, err
		}

		room, err := uc.roomRepo.FindByID(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		uc.recordCurrentRoom(ctx, user, room.ID)
		return &MatchResult{Room: room, Created: false}, nil
	}

	room, err := uc.lifecycle.Create(ctx, newRoomName())
	if err != nil {
		return nil, err
	}
	uc.recordCurrentRoom(ctx, user, room.ID)
	return &MatchResult{Room: room, Created: true}, nil
}

// recordCurrentRoom 寫回 user 的 currentRoomId, 失敗由對帳機制修正
func (uc *MatcherUseCase) recordCurrentRoom(ctx context.Context, user *domain.User, roomID string) {
	if user == nil {
		return
	}
	if err := uc.userRepo.SetCurrentRoom(ctx, user.UID, roomID); err != nil {
		logger.Log.Error("record currentRoomId failed",
			zap.String("uid", user.UID), zap.String("roomID", roomID), zap.Error(err))
		return
	}
	user.CurrentRoomID = roomID
}

func newRoomName() string {
	return fmt.Sprintf("pair-%s", uuid.New().String()[:8])
}
