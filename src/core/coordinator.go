package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/enum"
	"github.com/andrewyi/streamcrawler/src/expander"
	"github.com/andrewyi/streamcrawler/src/store"
	"github.com/andrewyi/streamcrawler/src/util"
	"github.com/andrewyi/streamcrawler/src/validator"
)

type Options struct {
	SeedFile   string
	FoundFile  string
	ValidFile  string
	PageBudget int
	Keywords   []string
}

// expander依赖本次运行加载的visited，因此由coordinator在加载后构造
type ExpanderFactory func(visited *store.Visited) expander.Expander

type Coordinator struct {
	opts      Options
	logger    *log.Logger
	backend   store.Backend
	expander  ExpanderFactory
	validator validator.Validator
}

func NewCoordinator(opts Options, backend store.Backend, newExpander ExpanderFactory, v validator.Validator, logger *log.Logger) *Coordinator {
	if opts.PageBudget <= 0 {
		opts.PageBudget = enum.DefaultPageBudget
	}
	return &Coordinator{
		opts:      opts,
		logger:    logger,
		backend:   backend,
		expander:  newExpander,
		validator: v,
	}
}

// Run 执行一次发现+校验
// 状态在发现阶段结束后必定保存（包括预算耗尽、ctx取消），保存失败时返回错误
func (c *Coordinator) Run(ctx context.Context) (entity.RunReport, error) {
	report := entity.RunReport{RunID: uuid.New().String()}
	logger := c.logger.WithField("run_id", report.RunID)

	state, err := c.backend.Load()
	if err != nil {
		logger.WithError(err).Warn("fail to load state, cold start")
		state = nil
	}
	visited, frontier := store.FromState(state)
	known := visited.Records()

	if frontier.Len() == 0 {
		n, err := CreateSeedRecord(logger, frontier, c.opts.SeedFile)
		if err != nil {
			logger.WithError(err).WithField("seed_file", c.opts.SeedFile).Warn("fail to read seed file")
		} else {
			logger.WithField("seeds", n).Info("frontier seeded")
		}
	}

	discovered := c.discover(ctx, logger, c.expander(visited), visited, frontier, known, &report)

	if err := c.backend.Save(store.Snapshot(visited, frontier)); err != nil {
		logger.WithError(err).Error("fail to save state")
		return report, err
	}
	report.FrontierSize = frontier.Len()

	if err := util.AppendLines(c.opts.FoundFile, discovered); err != nil {
		logger.WithError(err).WithField("file", c.opts.FoundFile).Error("fail to append discovered links")
		return report, fmt.Errorf("append discovered links: %w", err)
	}

	if err := ctx.Err(); err != nil {
		logger.WithError(err).Warn("run interrupted before validation")
		return report, err
	}

	partition, err := c.validateAndEmit(ctx, discovered)
	c.count(&report, partition)
	logger.WithFields(log.Fields{
		"pages_crawled": report.PagesCrawled,
		"fetched":       report.Fetched,
		"fetch_failed":  report.FetchFailed,
		"candidates":    report.Candidates,
		"terminal":      report.Terminal,
		"frontier":      report.FrontierSize,
		"valid":         report.Valid,
		"invalid":       report.Invalid,
		"errors":        report.Errors,
	}).Info("run finished")
	return report, err
}

func (c *Coordinator) discover(
	ctx context.Context,
	logger log.FieldLogger,
	exp expander.Expander,
	visited *store.Visited,
	frontier *store.Frontier,
	known map[string]time.Time,
	report *entity.RunReport) []string {

	var discovered []string
	seen := make(map[string]struct{})

	for report.PagesCrawled < c.opts.PageBudget && ctx.Err() == nil {
		u, ok := frontier.Pop()
		if !ok {
			break
		}
		if !util.IsHTTP(u) {
			logger.WithField("url", u).Debug("skip non-http url")
			continue
		}
		// 已访问的url不占用预算
		if visited.Has(u) {
			continue
		}

		expansion := exp.Expand(ctx, u)
		report.PagesCrawled++
		report.Fetched += expansion.Fetched
		report.FetchFailed += expansion.Failed
		report.Candidates += len(expansion.Candidates)

		var queued int
		for _, cand := range expansion.Candidates {
			key := util.URLKey(cand.URL)
			if cand.Terminal {
				if _, ok := known[key]; ok {
					continue
				}
				if _, ok := seen[cand.URL]; ok {
					continue
				}
				seen[cand.URL] = struct{}{}
				discovered = append(discovered, cand.URL)
				continue
			}
			if visited.Has(cand.URL) || frontier.Contains(cand.URL) {
				continue
			}
			if !Interesting(cand.URL, c.opts.Keywords) {
				continue
			}
			if frontier.Push(cand.URL) {
				queued++
			}
		}
		logger.WithFields(log.Fields{
			"url":        u,
			"candidates": len(expansion.Candidates),
			"queued":     queued,
		}).Info("page expanded")
	}

	report.Terminal = len(discovered)
	return discovered
}

// 校验并覆盖写入有效链接文件，每行一个url
func (c *Coordinator) validateAndEmit(ctx context.Context, urls []string) (entity.Partition, error) {
	partition := c.validator.Validate(ctx, urls)
	valid := partition.ValidURLs()
	sort.Strings(valid)
	if err := util.WriteLinesAtomic(c.opts.ValidFile, valid); err != nil {
		return partition, fmt.Errorf("write valid links: %w", err)
	}
	return partition, nil
}

func (c *Coordinator) count(report *entity.RunReport, p entity.Partition) {
	report.Valid = len(p.Valid)
	for _, r := range p.Invalid {
		if r.Outcome == enum.OutcomeError {
			report.Errors++
		} else {
			report.Invalid++
		}
	}
}

// ValidateLinks 只校验已有的链接文件（默认为发现阶段追加的文件）
func (c *Coordinator) ValidateLinks(ctx context.Context, linksFile string) (entity.RunReport, error) {
	report := entity.RunReport{RunID: uuid.New().String()}
	logger := c.logger.WithField("run_id", report.RunID)

	urls, err := util.ReadLines(linksFile)
	if err != nil {
		return report, fmt.Errorf("read links: %w", err)
	}
	report.Terminal = len(urls)

	partition, err := c.validateAndEmit(ctx, urls)
	c.count(&report, partition)
	logger.WithFields(log.Fields{
		"file":    linksFile,
		"total":   len(urls),
		"valid":   report.Valid,
		"invalid": report.Invalid,
		"errors":  report.Errors,
	}).Info("validation finished")
	return report, err
}

// Reset 从visited中移除指定url，all为true时清空；被移除的url可以再次被抓取
func (c *Coordinator) Reset(urls []string, all bool) (int, error) {
	state, err := c.backend.Load()
	if err != nil {
		return 0, err
	}
	visited, frontier := store.FromState(state)

	var removed int
	if all {
		removed = visited.Len()
		visited.Reset()
	} else {
		for _, u := range urls {
			if visited.Remove(u) {
				removed++
			}
		}
	}

	if err := c.backend.Save(store.Snapshot(visited, frontier)); err != nil {
		return 0, err
	}
	c.logger.WithField("removed", removed).Info("visited store reset")
	return removed, nil
}
