package app

import (
	"context"
	"testing"
	"time"

	"pair_chat_service/internal/account/domain"
	"pair_chat_service/internal/account/repository"
	pairingdomain "pair_chat_service/internal/pairing/domain"
	"pair_chat_service/pkg/encrypt"
	"pair_chat_service/pkg/logger"
	"pair_chat_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository Mock AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

// Create moke create account
func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// FindByEmail moke find account by email
func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID moke find account by id
func (m *MockAccountRepository) FindByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserRepository Mock pairing UserRepository (只用到 Upsert)
type MockUserRepository struct {
	mock.Mock
}

// FindByID moke find user
func (m *MockUserRepository) FindByID(ctx context.Context, uid string) (*pairingdomain.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) != nil {
		return args.Get(0).(*pairingdomain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// Upsert moke upsert user
func (m *MockUserRepository) Upsert(ctx context.Context, user *pairingdomain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// SetCurrentRoom moke set currentRoomId
func (m *MockUserRepository) SetCurrentRoom(ctx context.Context, uid, roomID string) error {
	args := m.Called(ctx, uid, roomID)
	return args.Error(0)
}

// Touch moke refresh last-activity
func (m *MockUserRepository) Touch(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

// UpdateRating moke update rating
func (m *MockUserRepository) UpdateRating(ctx context.Context, uid string, rating float64) error {
	args := m.Called(ctx, uid, rating)
	return args.Error(0)
}

// InsertRating moke insert rating entry
func (m *MockUserRepository) InsertRating(ctx context.Context, entry *pairingdomain.RatingEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

// FindRecentRatings moke find recent ratings
func (m *MockUserRepository) FindRecentRatings(ctx context.Context, uid string, limit int64) ([]pairingdomain.RatingEntry, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]pairingdomain.RatingEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindProfile moke find profile
func (m *MockUserRepository) FindProfile(ctx context.Context, uid string) (pairingdomain.Profile, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(pairingdomain.Profile), args.Error(1)
}

// MockSessionStore Mock RedisRepository[AccountSession]
type MockSessionStore struct {
	mock.Mock
}

// Set moke set session
func (m *MockSessionStore) Set(ctx context.Context, key string, value domain.AccountSession, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Get moke get session
func (m *MockSessionStore) Get(ctx context.Context, key string) (domain.AccountSession, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.AccountSession), args.Error(1)
}

// Del moke delete session
func (m *MockSessionStore) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// ExtendTTL moke extend session ttl
func (m *MockSessionStore) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

// 測試 Register
func TestAccountUseCase_Register(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockAccountRepo := new(MockAccountRepository)
	mockUserRepo := new(MockUserRepository)
	mockSessions := new(MockSessionStore)

	mockAccountRepo.On("FindByEmail", ctx, "a@example.com").Return(nil, repository.ErrAccountNotFound)
	mockAccountRepo.On("Create", ctx, mock.MatchedBy(func(acc *domain.Account) bool {
		return acc.Email == "a@example.com" && acc.Password != "secret1" && acc.AccountID != ""
	})).Return(nil)
	mockUserRepo.On("Upsert", ctx, mock.MatchedBy(func(u *pairingdomain.User) bool {
		return u.UserName == "Alice"
	})).Return(nil)

	uc := NewAccountUseCase(mockAccountRepo, mockUserRepo, time.Hour, mockSessions)
	err := uc.Register(ctx, "a@example.com", "secret1", "Alice")

	assert.NoError(t, err)
	mockAccountRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
}

// 測試 Register email 重複
func TestAccountUseCase_Register_DuplicateEmail(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockAccountRepo := new(MockAccountRepository)
	mockUserRepo := new(MockUserRepository)
	mockSessions := new(MockSessionStore)

	existing := &domain.Account{AccountID: "acc-1", Email: "a@example.com"}
	mockAccountRepo.On("FindByEmail", ctx, "a@example.com").Return(existing, nil)

	uc := NewAccountUseCase(mockAccountRepo, mockUserRepo, time.Hour, mockSessions)
	err := uc.Register(ctx, "a@example.com", "secret1", "Alice")

	assert.Error(t, err)
	mockAccountRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 測試 Login 成功發 token 並寫 session
func TestAccountUseCase_Login(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockAccountRepo := new(MockAccountRepository)
	mockUserRepo := new(MockUserRepository)
	mockSessions := new(MockSessionStore)

	hashed, err := encrypt.HashPassword("secret1")
	assert.NoError(t, err)
	account := &domain.Account{AccountID: "acc-1", Email: "a@example.com", Password: hashed}

	mockAccountRepo.On("FindByEmail", ctx, "a@example.com").Return(account, nil)
	mockSessions.On("Set", ctx, "acc-1", mock.Anything, time.Hour).Return(nil)

	uc := NewAccountUseCase(mockAccountRepo, mockUserRepo, time.Hour, mockSessions)
	tokenStr, err := uc.Login(ctx, "a@example.com", "secret1")

	assert.NoError(t, err)
	assert.NotEmpty(t, tokenStr)

	claims, err := token.ParseJWT(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, "acc-1", claims.UserID)
	mockSessions.AssertExpectations(t)
}

// 測試 Login 密碼錯誤
func TestAccountUseCase_Login_WrongPassword(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockAccountRepo := new(MockAccountRepository)
	mockUserRepo := new(MockUserRepository)
	mockSessions := new(MockSessionStore)

	hashed, err := encrypt.HashPassword("secret1")
	assert.NoError(t, err)
	account := &domain.Account{AccountID: "acc-1", Email: "a@example.com", Password: hashed}

	mockAccountRepo.On("FindByEmail", ctx, "a@example.com").Return(account, nil)

	uc := NewAccountUseCase(mockAccountRepo, mockUserRepo, time.Hour, mockSessions)
	_, err = uc.Login(ctx, "a@example.com", "wrong-password")

	assert.Error(t, err)
	mockSessions.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// 測試 Logout 清 session
func TestAccountUseCase_Logout(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockAccountRepo := new(MockAccountRepository)
	mockUserRepo := new(MockUserRepository)
	mockSessions := new(MockSessionStore)

	jwtToken, err := token.GenerateJWT("acc-1", string(token.RoleUser), "pairing_service_test")
	assert.NoError(t, err)

	mockSessions.On("Del", ctx, "acc-1").Return(nil)

	uc := NewAccountUseCase(mockAccountRepo, mockUserRepo, time.Hour, mockSessions)
	err = uc.Logout(ctx, jwtToken)

	assert.NoError(t, err)
	mockSessions.AssertExpectations(t)
}
