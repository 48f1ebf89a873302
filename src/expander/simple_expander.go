// 以显式队列代替递归：每一层的任务带有深度，全局共享visited
// 同一层内的任务可以并发抓取（parallelism），visited的检查与标记是原子的，
// 因此同一个url在一次运行中最多被抓取一次
package expander

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/andrewyi/streamcrawler/src/analyzer"
	"github.com/andrewyi/streamcrawler/src/downloader"
	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/enum"
	"github.com/andrewyi/streamcrawler/src/limiter"
	"github.com/andrewyi/streamcrawler/src/store"
)

type Options struct {
	MaxDepth    int
	Parallelism int
}

type SimpleExpander struct {
	maxDepth    int
	parallelism int

	visited    *store.Visited
	downloader downloader.Downloader
	analyzer   analyzer.Analyzer
	limiter    *limiter.Limiter
	permission Permission // 可为nil
	logger     *log.Logger

	now func() time.Time
}

type task struct {
	url   string
	depth int
}

type visitResult struct {
	candidates []entity.Candidate
	fetched    bool
	failed     bool
}

func NewSimpleExpander(
	opts Options,
	visited *store.Visited,
	d downloader.Downloader,
	a analyzer.Analyzer,
	l *limiter.Limiter,
	permission Permission,
	logger *log.Logger) *SimpleExpander {

	if opts.MaxDepth < 0 {
		opts.MaxDepth = enum.DefaultMaxDepth
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &SimpleExpander{
		maxDepth:    opts.MaxDepth,
		parallelism: opts.Parallelism,
		visited:     visited,
		downloader:  d,
		analyzer:    a,
		limiter:     l,
		permission:  permission,
		logger:      logger,
		now:         time.Now,
	}
}

func (e *SimpleExpander) Expand(ctx context.Context, seed string) entity.Expansion {
	var (
		mu        sync.Mutex
		expansion entity.Expansion
		seen      = make(map[string]struct{})
	)

	level := []task{{url: seed, depth: 0}}
	for len(level) > 0 && ctx.Err() == nil {
		var next []task

		var g errgroup.Group
		g.SetLimit(e.parallelism)
		for _, t := range level {
			t := t
			g.Go(func() error {
				r := e.visit(ctx, t)

				mu.Lock()
				defer mu.Unlock()
				if r.fetched {
					expansion.Fetched++
				}
				if r.failed {
					expansion.Failed++
				}
				for _, c := range r.candidates {
					if _, ok := seen[c.URL]; ok {
						continue
					}
					seen[c.URL] = struct{}{}
					expansion.Candidates = append(expansion.Candidates, c)
					// 下一层仍在深度范围内才入队
					if t.depth+1 <= e.maxDepth && analyzer.IsExpandable(c.URL) {
						next = append(next, task{url: c.URL, depth: t.depth + 1})
					}
				}
				return nil
			})
		}
		g.Wait()

		level = next
	}
	return expansion
}

func (e *SimpleExpander) visit(ctx context.Context, t task) visitResult {
	var r visitResult

	if t.depth > e.maxDepth {
		return r
	}
	// 已取消时不再标记，留给之后的运行处理
	if ctx.Err() != nil {
		return r
	}
	// 抓取前标记，抓取失败也不会在本次或之后的运行中重试
	if !e.visited.MarkIfAbsent(t.url, e.now()) {
		return r
	}

	logger := e.logger.WithFields(log.Fields{"url": t.url, "depth": t.depth})

	if e.permission != nil && !e.permission.Allowed(ctx, t.url) {
		logger.Debug("disallowed by robots")
		return r
	}
	if err := e.limiter.Wait(ctx); err != nil {
		// 尚未抓取，撤销标记
		e.visited.Remove(t.url)
		logger.WithError(err).Debug("politeness wait interrupted")
		return r
	}

	r.fetched = true
	page, err := e.downloader.Download(ctx, t.url)
	if err != nil {
		r.failed = true
		logger.WithError(err).WithField("reason", failureReason(err)).Info("fail to fetch")
		return r
	}

	kind, urls, err := e.analyzer.Analyze(page)
	if err != nil {
		// 格式错误不影响已经提取出的url
		logger.WithError(err).WithField("kind", kind.String()).Debug("malformed document")
	}
	logger.WithFields(log.Fields{"kind": kind.String(), "found": len(urls)}).Debug("page analyzed")

	for _, u := range urls {
		r.candidates = append(r.candidates, entity.Candidate{
			URL:      u,
			Source:   t.url,
			Depth:    t.depth,
			Terminal: analyzer.IsTerminal(u),
		})
	}
	return r
}

func failureReason(err error) string {
	var fErr *downloader.FetchError
	switch {
	case errors.Is(err, downloader.ErrTimeout):
		return "timeout"
	case errors.Is(err, downloader.ErrTooLarge):
		return "too_large"
	case errors.As(err, &fErr):
		if fErr.StatusCode != 0 {
			return "status"
		}
		return "network"
	default:
		return "unknown"
	}
}
