package app

import (
	"context"
	"sync"

	"pair_chat_service/internal/pairing/repository"
)

// WordDirectory link-substitution 字典的唯讀快取, 第一次用到才載入
type WordDirectory struct {
	mu     sync.Mutex
	words  map[string]string
	loaded bool
	repo   repository.WordRepository
}

// NewWordDirectory create WordDirectory
func NewWordDirectory(repo repository.WordRepository) *WordDirectory {
	return &WordDirectory{repo: repo}
}

// Words 取整份字典, 載入失敗下次再試
func (d *WordDirectory) Words(ctx context.Context) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.loaded {
		words, err := d.repo.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		d.words = words
		d.loaded = true
	}

	out := make(map[string]string, len(d.words))
	for k, v := range d.words {
		out[k] = v
	}
	return out, nil
}
