package domain

// User 參與者文件, 對應 users collection
// identity 由認證提供者發出, 本服務只擁有 currentRoomId / rating 欄位
type User struct {
	UID           string  `bson:"_id" json:"uid"`
	UserName      string  `bson:"userName,omitempty" json:"user_name,omitempty"`
	CurrentRoomID string  `bson:"currentRoomId" json:"current_room_id"`
	Timestamp     int64   `bson:"timestamp" json:"timestamp"`
	Rating        float64 `bson:"rating" json:"rating"`
	Verified      bool    `bson:"verified,omitempty" json:"verified,omitempty"`
}

// ReducedUser directory cache 裡的最小顯示資料
type ReducedUser struct {
	UserName string `json:"user_name"`
}

// Profile 一次 profile fetch 的結果, Found 區分有無資料
type Profile struct {
	UID      string
	UserName string
	Found    bool
}

// RatingEntry 單次評分紀錄, 對應 user_ratings collection
type RatingEntry struct {
	ID           string  `bson:"_id,omitempty" json:"id"`
	UID          string  `bson:"uid" json:"uid"`
	Feedback     float64 `bson:"feedback" json:"feedback"`
	Conversation float64 `bson:"conversation" json:"conversation"`
	Timestamp    int64   `bson:"timestamp" json:"timestamp"`
}

// Word link-substitution 字典項目, 對本服務唯讀
type Word struct {
	ID  string `bson:"_id,omitempty" json:"id"`
	Key string `bson:"key" json:"key"`
	URL string `bson:"url" json:"url"`
}
