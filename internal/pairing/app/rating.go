package app

import (
	"math"
	"strings"

	"pair_chat_service/internal/pairing/domain"
)

const (
	// ratingSlots 少於五筆評分時補中性值, 避免新用戶被過度放大
	ratingSlots = 5
	// ratingBaseline 把平均值平移到預設中點
	ratingBaseline = 5.0
	// scoreCap 單一對話對評分的影響上限
	scoreCap = 3.0
	// scoreLogBase 對數底, 壓縮字數成長
	scoreLogBase = 400.0
)

// ConversationScore 以雙方字數衡量單次對話的平衡度, 回傳 [0, 3]
// avg^3 獎勵份量, (1 - |S-R|/(S+R)) 獎勵平衡, log_400 壓縮成長
func ConversationScore(sent, received int) float64 {
	total := sent + received
	if total == 0 {
		return 0
	}

	avg := float64(total) / 2
	balance := 1 - math.Abs(float64(sent-received))/float64(total)
	raw := math.Pow(avg, 3) * balance

	// raw <= 1 時對數為零或負(或未定義), 下限收在 0
	if raw <= 1 {
		return 0
	}

	score := math.Log(raw) / math.Log(scoreLogBase)
	if score > scoreCap {
		score = scoreCap
	}
	return math.Round(score*10) / 10
}

// AggregateRating 合併回饋分數與對話分數成累計評分
// 兩個列表各補滿五筆(回饋補 0, 對話補 ConversationScore(1,1)),
// 逐項相加取平均, 再加上基準偏移
func AggregateRating(feedback, conversation []float64) float64 {
	fb := padScores(feedback, 0)
	conv := padScores(conversation, ConversationScore(1, 1))

	var sum float64
	for i := 0; i < ratingSlots; i++ {
		sum += fb[i] + conv[i]
	}

	return math.Round((sum/ratingSlots+ratingBaseline)*10) / 10
}

func padScores(scores []float64, filler float64) []float64 {
	out := make([]float64, ratingSlots)
	for i := 0; i < ratingSlots; i++ {
		if i < len(scores) {
			out[i] = scores[i]
		} else {
			out[i] = filler
		}
	}
	return out
}

// WordMetrics 統計 targetUID 送出的字數 S 與收到的字數 R
func WordMetrics(messages []domain.Message, targetUID string) (sent, received int) {
	for _, msg := range messages {
		words := len(strings.Fields(msg.Content))
		if msg.UID == targetUID {
			sent += words
		} else {
			received += words
		}
	}
	return sent, received
}
