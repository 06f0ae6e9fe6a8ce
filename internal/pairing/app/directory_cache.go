package app

import (
	"context"
	"sync"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/internal/pairing/repository"
	"pair_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// DirectoryCache uid → 顯示資料的 read-through cache
// session 生命週期內不淘汰; 查無名字不做負向快取, 之後還會再試
type DirectoryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.ReducedUser
	users   repository.UserRepository
}

// NewDirectoryCache create DirectoryCache
func NewDirectoryCache(users repository.UserRepository) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]domain.ReducedUser),
		users:   users,
	}
}

// Resolve 對每個未見過的 uid 做一次 profile fetch
// fetch 失敗或名字為空時不寫入, 留待下次再解析
func (c *DirectoryCache) Resolve(ctx context.Context, uids []string) {
	for _, uid := range uids {
		if uid == "" {
			continue
		}
		if _, ok := c.Lookup(uid); ok {
			continue
		}

		profile, err := c.users.FindProfile(ctx, uid)
		if err != nil {
			logger.Log.Error("directory resolve failed",
				zap.String("uid", uid), zap.Error(err))
			continue
		}
		if !profile.Found || profile.UserName == "" {
			continue
		}

		c.mu.Lock()
		c.entries[uid] = domain.ReducedUser{UserName: profile.UserName}
		c.mu.Unlock()
	}
}

// Lookup 讀取已解析的項目
func (c *DirectoryCache) Lookup(uid string) (domain.ReducedUser, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[uid]
	return entry, ok
}

// Snapshot 回傳目前所有已解析的項目
func (c *DirectoryCache) Snapshot() map[string]domain.ReducedUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]domain.ReducedUser, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
