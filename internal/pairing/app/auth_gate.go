package app

import (
	"context"
	"sync"
)

// Continuation 身分確定後要做的事
type Continuation func(ctx context.Context, uid string)

// AuthGate 單格續延容器: 最多存一個待辦, 第二次 Defer 覆蓋第一次,
// Settle 時恰好消費一次
type AuthGate struct {
	mu      sync.Mutex
	pending Continuation
}

// NewAuthGate create AuthGate
func NewAuthGate() *AuthGate {
	return &AuthGate{}
}

// Defer 暫存一個續延, 覆蓋先前未消費的那個
func (g *AuthGate) Defer(fn Continuation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = fn
}

// Settle 身分確定, 消費暫存的續延 (若有)
func (g *AuthGate) Settle(ctx context.Context, uid string) {
	g.mu.Lock()
	fn := g.pending
	g.pending = nil
	g.mu.Unlock()

	if fn != nil {
		fn(ctx, uid)
	}
}

// Pending 是否有未消費的續延
func (g *AuthGate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}
