package store

import (
	"sync"
	"time"

	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/util"
)

// Visited url(去除query/fragment) -> 最近访问时间
type Visited struct {
	mu      sync.RWMutex
	records map[string]time.Time
}

func NewVisited(records map[string]time.Time) *Visited {
	v := &Visited{records: make(map[string]time.Time, len(records))}
	for u, t := range records {
		v.records[util.URLKey(u)] = t
	}
	return v
}

func (v *Visited) Has(u string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.records[util.URLKey(u)]
	return ok
}

// 检查并标记在同一把锁内完成，返回true表示本次新标记
func (v *Visited) MarkIfAbsent(u string, at time.Time) bool {
	key := util.URLKey(u)
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.records[key]; ok {
		return false
	}
	v.records[key] = at
	return true
}

func (v *Visited) Remove(u string) bool {
	key := util.URLKey(u)
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.records[key]; !ok {
		return false
	}
	delete(v.records, key)
	return true
}

func (v *Visited) Reset() {
	v.mu.Lock()
	v.records = make(map[string]time.Time)
	v.mu.Unlock()
}

func (v *Visited) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records)
}

func (v *Visited) Get(u string) (entity.VisitRecord, bool) {
	key := util.URLKey(u)
	v.mu.RLock()
	defer v.mu.RUnlock()
	t, ok := v.records[key]
	return entity.VisitRecord{Key: key, VisitedAt: t}, ok
}

// Records 返回拷贝
func (v *Visited) Records() map[string]time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]time.Time, len(v.records))
	for k, t := range v.records {
		out[k] = t
	}
	return out
}
