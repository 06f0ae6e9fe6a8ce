package domain

import "sort"

// Message 一則聊天訊息, append-only
// timestamp 由 repository 在寫入時蓋章, 不信任 client 時鐘
type Message struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	RoomID    string `bson:"roomId" json:"room_id"`
	UID       string `bson:"uid" json:"uid"`
	Content   string `bson:"content" json:"content"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}

// SortMessages 按 timestamp 升序排列, 同時間以 ID 穩定排序
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Timestamp == messages[j].Timestamp {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Timestamp < messages[j].Timestamp
	})
}
