// 每种文档类型对应一个Extractor，由Classify根据url后缀选择
// Extractor不会因为文档格式错误而中断调用方：返回的error仅用于记录日志，
// 同时返回的候选url依然有效（可能为空）
package analyzer

import (
	"errors"

	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/enum"
)

var ErrParseFailure = errors.New("malformed document")

type Extractor interface {
	Extract(page entity.Page) ([]string, error)
}

type Analyzer interface {
	Analyze(page entity.Page) (enum.Kind, []string, error)
}

// 按出现顺序去重
type urlSet struct {
	seen  map[string]struct{}
	items []string
}

func newURLSet() *urlSet {
	return &urlSet{seen: make(map[string]struct{})}
}

func (s *urlSet) add(u string) {
	if u == "" {
		return
	}
	if _, ok := s.seen[u]; ok {
		return
	}
	s.seen[u] = struct{}{}
	s.items = append(s.items, u)
}

func (s *urlSet) addAll(us []string) {
	for _, u := range us {
		s.add(u)
	}
}
