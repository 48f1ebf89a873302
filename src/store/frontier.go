package store

import (
	"sync"

	"github.com/andrewyi/streamcrawler/src/util"
)

// Frontier 先进先出，按url key去重，保留原始url
type Frontier struct {
	mu    sync.Mutex
	items []string
	keys  map[string]struct{}
}

func NewFrontier(items []string) *Frontier {
	f := &Frontier{keys: make(map[string]struct{}, len(items))}
	for _, u := range items {
		f.push(u)
	}
	return f
}

// 已存在返回false
func (f *Frontier) Push(u string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.push(u)
}

func (f *Frontier) push(u string) bool {
	if u == "" {
		return false
	}
	key := util.URLKey(u)
	if _, ok := f.keys[key]; ok {
		return false
	}
	f.keys[key] = struct{}{}
	f.items = append(f.items, u)
	return true
}

// 出队即移除，与后续抓取是否成功无关
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return "", false
	}
	u := f.items[0]
	f.items[0] = ""
	f.items = f.items[1:]
	delete(f.keys, util.URLKey(u))
	return u, true
}

func (f *Frontier) Contains(u string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[util.URLKey(u)]
	return ok
}

func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *Frontier) Items() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.items))
	copy(out, f.items)
	return out
}

// 移除所有已访问的url，返回移除数量
func (f *Frontier) Prune(v *Visited) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	var removed int
	for _, u := range f.items {
		if v.Has(u) {
			delete(f.keys, util.URLKey(u))
			removed++
			continue
		}
		kept = append(kept, u)
	}
	for i := len(kept); i < len(f.items); i++ {
		f.items[i] = ""
	}
	f.items = kept
	return removed
}
