// 固定数量worker的协程池，worker自行从channel中读取任务
// worker数量即并发上限，任务发送方在所有worker繁忙时阻塞
// NOTE: 注意当前实现没有处理worker崩溃、需要重启等问题
package routingpool

import (
	"context"
	"errors"
	"sync"
)

var ErrStarted = errors.New("routing pool already started")

type SimpleRoutingPool struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool

	ctx      context.Context
	size     uint32
	workerFn func(context.Context)
}

func NewSimpleRoutingPool(ctx context.Context, size uint32, workerFn func(context.Context)) *SimpleRoutingPool {
	if size == 0 {
		size = 1
	}
	return &SimpleRoutingPool{
		ctx:      ctx,
		size:     size,
		workerFn: workerFn,
	}
}

func (s *SimpleRoutingPool) Size() uint32 {
	return s.size
}

func (s *SimpleRoutingPool) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	s.started = true

	var i uint32
	for ; i != s.size; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.workerFn(s.ctx)
		}()
	}
	return nil
}

// 等待所有worker退出，worker需要自行根据channel关闭或ctx结束返回
func (s *SimpleRoutingPool) Stop() {
	s.wg.Wait()
}
