package luaz

import (
	"sync"
	"weak"
)

// Pool recycles scratch allocators across short-lived interpreter states.
//
// Items are held through weak pointers, so the GC can reclaim parked arenas
// whenever memory is tight and the pool sizes itself to actual pressure. Per
// key (a caller-chosen state class, e.g. one per script), the pool records
// the peak usage of recent states and sizes fresh arenas from that history.
type Pool struct {
	pool  []weak.Pointer[PoolItem]
	sizes map[uint64]*poolSizeStats
	mu    sync.Mutex
}

// poolSizeStats tracks required memory across the last 50 states of a key.
type poolSizeStats struct {
	count      int
	totalBytes int
}

// PoolItem wraps a ScratchAllocator checked out of the pool.
type PoolItem struct {
	Alloc *ScratchAllocator
	Key   uint64
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	return &Pool{sizes: make(map[uint64]*poolSizeStats)}
}

// Acquire returns a scratch allocator for a new interpreter state, reusing a
// parked one when available. key identifies the state class for sizing.
func (p *Pool) Acquire(key uint64) *PoolItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.pool) > 0 {
		last := len(p.pool) - 1
		wp := p.pool[last]
		p.pool = p.pool[:last]

		if item := wp.Value(); item != nil {
			item.Key = key
			return item
		}
		// Collected while parked; try the next entry.
	}

	arena := NewScratchArena(WithRegionSize(p.regionSize(key)))
	return &PoolItem{
		Alloc: NewScratchAllocator(arena),
		Key:   key,
	}
}

// Release parks an allocator for reuse once its interpreter state is gone.
// Every pointer handed out through the allocator is invalid afterwards.
func (p *Pool) Release(item *PoolItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.park(item)
}

// ReleaseMany parks a batch under one lock acquisition.
func (p *Pool) ReleaseMany(items []*PoolItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range items {
		p.park(item)
	}
}

func (p *Pool) park(item *PoolItem) {
	peak := item.Alloc.Peak()
	item.Alloc.Reset()

	if stats, ok := p.sizes[item.Key]; ok {
		if stats.count == 50 {
			stats.count = 1
			stats.totalBytes /= 50
		}
		stats.count++
		stats.totalBytes += peak
	} else {
		p.sizes[item.Key] = &poolSizeStats{count: 1, totalBytes: peak}
	}

	item.Key = 0
	p.pool = append(p.pool, weak.Make(item))
}

// regionSize returns the arena region size for a key, defaulting to 256KB
// until the key has history.
func (p *Pool) regionSize(key uint64) int {
	if stats, ok := p.sizes[key]; ok && stats.totalBytes/stats.count > 0 {
		return stats.totalBytes / stats.count
	}
	return 256 * 1024
}
