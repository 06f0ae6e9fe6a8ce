package app

import (
	"context"
	"time"

	"pair_chat_service/internal/account/domain"
	"pair_chat_service/internal/account/repository"
	pairingdomain "pair_chat_service/internal/pairing/domain"
	pairingrepo "pair_chat_service/internal/pairing/repository"
	"pair_chat_service/pkg/config"
	"pair_chat_service/pkg/database"
	"pair_chat_service/pkg/encrypt"
	errprocess "pair_chat_service/pkg/err"
	"pair_chat_service/pkg/logger"
	token "pair_chat_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountUseCase 這裡封裝了對外提供的應用服務
type AccountUseCase interface {
	Register(ctx context.Context, email, password, displayName string) error
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

type accountUseCase struct {
	accountRepo repository.AccountRepository
	userRepo    pairingrepo.UserRepository
	sessionTTL  time.Duration
	redisRepo   database.RedisRepository[domain.AccountSession]
}

// NewAccountUseCase 建立一個新的 AccountUseCase
func NewAccountUseCase(accountRepo repository.AccountRepository,
	userRepo pairingrepo.UserRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.AccountSession],
) AccountUseCase {
	return &accountUseCase{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		sessionTTL:  sessionTTL,
		redisRepo:   redisRepo,
	}
}

// Register 建立 account, 同時開出對應的 visitor profile
func (a *accountUseCase) Register(ctx context.Context, email, password, displayName string) error {
	if _, err := a.accountRepo.FindByEmail(ctx, email); err == nil {
		return errprocess.Set("email already exists")
	}

	pw, err := encrypt.HashPassword(password)
	if err != nil {
		return err
	}

	account := domain.Account{
		AccountID:   uuid.New().String(),
		Email:       email,
		Password:    pw,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}

	if err := a.accountRepo.Create(ctx, &account); err != nil {
		return err
	}

	// profile 建不起來不擋註冊, 第一次配對時會補建
	if err := a.userRepo.Upsert(ctx, &pairingdomain.User{
		UID:      account.AccountID,
		UserName: displayName,
	}); err != nil {
		logger.Log.Error("create visitor profile failed",
			zap.String("accountID", account.AccountID), zap.Error(err))
	}

	return nil
}

// Login 驗證密碼並核發 JWT, session 存進 Redis
func (a *accountUseCase) Login(ctx context.Context, email, password string) (string, error) {
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", errprocess.Set("account not found")
	}

	if err = account.IsPasswordMatch(password); err != nil {
		logger.Log.Error("password can't match!!!")
		return "", err
	}

	t, err := token.GenerateJWTFunc(account.AccountID, string(token.RoleUser), config.EnvConfig.PairingService)
	if err != nil {
		return "", err
	}

	now := time.Now()
	session := domain.AccountSession{
		Token:        t,
		AccountID:    account.AccountID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(a.sessionTTL),
	}

	if err := a.redisRepo.Set(ctx, account.AccountID, session, a.sessionTTL); err != nil {
		logger.Log.Error("session write failed",
			zap.String("accountID", account.AccountID), zap.Error(err))
	}

	return t, nil
}

// Logout 清掉 Redis session
func (a *accountUseCase) Logout(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWTFunc(t)
	if err != nil {
		logger.Log.Error("Logout err :", zap.String("err", err.Error()))
		return err
	}

	return a.redisRepo.Del(ctx, tokenInfo.UserID)
}
