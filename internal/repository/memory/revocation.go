package memory

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/dtroode/homestock-server/internal/model"
)

var _ model.RevocationStore = (*RevocationRepository)(nil)

// deleteBatch bounds how many entries DeleteExpired removes per lock hold.
const deleteBatch = 1000

// RevocationRepository is a map-backed ledger with an expiry-ordered index.
// Entries live until DeleteExpired removes them.
type RevocationRepository struct {
	mu      sync.RWMutex
	entries map[string]model.RevocationEntry
	expiry  expiryHeap
}

func NewRevocationRepository() *RevocationRepository {
	return &RevocationRepository{
		entries: make(map[string]model.RevocationEntry),
	}
}

func (r *RevocationRepository) Add(_ context.Context, entry model.RevocationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.TokenID]; !ok {
		r.entries[entry.TokenID] = entry
		heap.Push(&r.expiry, expiryItem{expiresAt: entry.ExpiresAt, tokenID: entry.TokenID})
	}
	return nil
}

func (r *RevocationRepository) Contains(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[tokenID]
	return ok, nil
}

// DeleteExpired pops expired entries off the index in batches of
// deleteBatch, releasing the lock between batches.
func (r *RevocationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	for {
		n, more := r.deleteExpiredBatch(now)
		removed += n
		if !more {
			return removed, nil
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
	}
}

func (r *RevocationRepository) deleteExpiredBatch(now time.Time) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for r.expiry.Len() > 0 && !r.expiry[0].expiresAt.After(now) {
		if removed == deleteBatch {
			return removed, true
		}
		item := heap.Pop(&r.expiry).(expiryItem)
		delete(r.entries, item.tokenID)
		removed++
	}
	return removed, false
}

func (r *RevocationRepository) Counts(_ context.Context, now time.Time) (model.RevocationStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := model.RevocationStats{Total: int64(len(r.entries))}
	for _, entry := range r.entries {
		if entry.ExpiresAt.After(now) {
			stats.Active++
		} else {
			stats.Expired++
		}
	}
	return stats, nil
}

type expiryItem struct {
	expiresAt time.Time
	tokenID   string
}

// expiryHeap is a min-heap of ledger entries ordered by expiry.
type expiryHeap []expiryItem

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)        { *h = append(*h, x.(expiryItem)) }
func (h *expiryHeap) Pop() any {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}
