package app

import (
	"context"

	"pair_chat_service/internal/pairing/domain"

	"github.com/stretchr/testify/mock"
)

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// CreateRoom moke create room
func (m *MockRoomRepository) CreateRoom(ctx context.Context, room *domain.Room) (string, error) {
	args := m.Called(ctx, room)
	return args.String(0), args.Error(1)
}

// FindByID moke find room by room id
func (m *MockRoomRepository) FindByID(ctx context.Context, roomID string) (*domain.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindOpenCandidate moke find open candidate
func (m *MockRoomRepository) FindOpenCandidate(ctx context.Context) (*domain.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

// IncrementExposeCount moke increment exposeCount
func (m *MockRoomRepository) IncrementExposeCount(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// ClaimSeat moke claim second seat
func (m *MockRoomRepository) ClaimSeat(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// SetOccupancy moke set occupancy
func (m *MockRoomRepository) SetOccupancy(ctx context.Context, roomID string, userCount int, open bool) error {
	args := m.Called(ctx, roomID, userCount, open)
	return args.Error(0)
}

// IncrementMessageCount moke increment messageCount
func (m *MockRoomRepository) IncrementMessageCount(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert moke insert msg
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

// FindByRoom moke find room messages
func (m *MockMessageRepository) FindByRoom(ctx context.Context, roomID string) ([]domain.Message, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteByRoom moke bulk delete room messages
func (m *MockMessageRepository) DeleteByRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// FindByID moke find user by uid
func (m *MockUserRepository) FindByID(ctx context.Context, uid string) (*domain.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// Upsert moke upsert user
func (m *MockUserRepository) Upsert(ctx context.Context, user *domain.User) error {
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

// UpdateRating moke update cumulative rating
func (m *MockUserRepository) UpdateRating(ctx context.Context, uid string, rating float64) error {
	args := m.Called(ctx, uid, rating)
	return args.Error(0)
}

// InsertRating moke append rating entry
func (m *MockUserRepository) InsertRating(ctx context.Context, entry *domain.RatingEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

// FindRecentRatings moke find recent rating entries
func (m *MockUserRepository) FindRecentRatings(ctx context.Context, uid string, limit int64) ([]domain.RatingEntry, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.RatingEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindProfile moke find display profile
func (m *MockUserRepository) FindProfile(ctx context.Context, uid string) (domain.Profile, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(domain.Profile), args.Error(1)
}

// MockChangeFeed Mock ChangeFeed
type MockChangeFeed struct {
	mock.Mock
}

// Subscribe moke subscriber
func (m *MockChangeFeed) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

// MockWordRepository Mock WordRepository
type MockWordRepository struct {
	mock.Mock
}

// FetchAll moke fetch whole dictionary
func (m *MockWordRepository) FetchAll(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}
