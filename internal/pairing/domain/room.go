package domain

// RoomState 房間佔用狀態機
type RoomState int

const (
	// RoomStateEmpty no seat occupied
	RoomStateEmpty RoomState = iota
	// RoomStateOpen one seat occupied, second seat claimable
	RoomStateOpen
	// RoomStateFull both seats occupied
	RoomStateFull
	// RoomStateClosed permanently retired, never matched again
	RoomStateClosed
)

// MaxSeats 一個房間兩個座位
const MaxSeats = 2

// Room definition ephemeral 1對1 chat room
// 文件欄位對應 rooms collection 的 schema
type Room struct {
	ID           string `bson:"_id,omitempty" json:"id"`
	Name         string `bson:"name" json:"name"`
	Timestamp    int64  `bson:"timestamp" json:"timestamp"` // creation / last-activity
	UserCount    int    `bson:"userCount" json:"user_count"`
	ExposeCount  int    `bson:"exposeCount" json:"expose_count"`
	MessageCount int    `bson:"messageCount" json:"message_count"` // informational only
	Open         bool   `bson:"open" json:"open"`
}

// State derive the occupancy state from the stored fields
func (r *Room) State() RoomState {
	if !r.Open {
		return RoomStateClosed
	}
	switch r.UserCount {
	case 0:
		return RoomStateEmpty
	case 1:
		return RoomStateOpen
	default:
		return RoomStateFull
	}
}

// HasOpenSeat 是否還有空座位可配對
func (r *Room) HasOpenSeat() bool {
	return r.Open && r.UserCount == 1
}
