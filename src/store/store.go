// 跨运行保存的状态只有两份：Visited与Frontier
// 运行期间由coordinator独占，运行结束时通过Backend整体落盘
package store

import (
	"fmt"
	"time"
)

// State 一次加载/保存的完整快照
type State struct {
	Visited  map[string]time.Time
	Frontier []string
}

type Backend interface {
	Load() (*State, error)
	Save(*State) error
	Close() error
}

// PersistenceError 状态文件/数据库不可读写
type PersistenceError struct {
	Op   string // load | save
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("fail to %s state %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// 由State构造运行期对象
func FromState(s *State) (*Visited, *Frontier) {
	if s == nil {
		return NewVisited(nil), NewFrontier(nil)
	}
	return NewVisited(s.Visited), NewFrontier(s.Frontier)
}

// 保存前去掉frontier中已访问的url，保证两者不相交
func Snapshot(v *Visited, f *Frontier) *State {
	f.Prune(v)
	return &State{
		Visited:  v.Records(),
		Frontier: f.Items(),
	}
}
