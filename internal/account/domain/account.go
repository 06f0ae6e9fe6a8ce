package domain

import (
	"time"

	"pair_chat_service/pkg/encrypt"
)

// Account 用來表示註冊過的使用者
type Account struct {
	AccountID   string    `bson:"_id"`
	Email       string    `bson:"email"`
	Password    string    `bson:"password"`
	DisplayName string    `bson:"displayName"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// AccountSession 用來表示使用者的 Session
type AccountSession struct {
	Token        string    `json:"Token"`
	AccountID    string    `json:"AccountID"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// IsPasswordMatch 密碼驗證
func (a *Account) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(a.Password, inputPwd)
}

// IsExpired 檢查 Session 是否已過期
func (s *AccountSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}
