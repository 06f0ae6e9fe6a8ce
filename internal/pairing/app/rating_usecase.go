package app

import (
	"context"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/internal/pairing/repository"
	"pair_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// RatingUseCase 評分提交流程: 由當前對話算出 conversation score,
// 追加一筆評分文件, 再用最近五筆重算累計評分
// 寫入失敗對 session 非致命, 記錄後照舊前進
type RatingUseCase struct {
	userRepo repository.UserRepository
	msgRepo  repository.MessageRepository
}

// NewRatingUseCase init rating use case
func NewRatingUseCase(userRepo repository.UserRepository, msgRepo repository.MessageRepository) *RatingUseCase {
	return &RatingUseCase{
		userRepo: userRepo,
		msgRepo:  msgRepo,
	}
}

// SubmitRating 對 targetUID 留下 feedback 分數並重算累計評分
func (uc *RatingUseCase) SubmitRating(ctx context.Context, roomID, targetUID string, feedback float64) error {
	messages, err := uc.msgRepo.FindByRoom(ctx, roomID)
	if err != nil {
		// 拿不到訊息就用空對話計分
		logger.Log.Error("rating: message fetch failed",
			zap.String("roomID", roomID), zap.Error(err))
		messages = nil
	}

	sent, received := WordMetrics(messages, targetUID)
	conv := ConversationScore(sent, received)

	entry := &domain.RatingEntry{
		UID:          targetUID,
		Feedback:     feedback,
		Conversation: conv,
	}
	if _, err := uc.userRepo.InsertRating(ctx, entry); err != nil {
		return err
	}

	entries, err := uc.userRepo.FindRecentRatings(ctx, targetUID, ratingSlots)
	if err != nil {
		logger.Log.Error("rating: recent ratings fetch failed",
			zap.String("uid", targetUID), zap.Error(err))
		return nil
	}

	feedbacks := make([]float64, 0, len(entries))
	conversations := make([]float64, 0, len(entries))
	for _, e := range entries {
		feedbacks = append(feedbacks, e.Feedback)
		conversations = append(conversations, e.Conversation)
	}

	rating := AggregateRating(feedbacks, conversations)
	if err := uc.userRepo.UpdateRating(ctx, targetUID, rating); err != nil {
		logger.Log.Error("rating: cumulative rating write failed",
			zap.String("uid", targetUID), zap.Error(err))
	}
	return nil
}
