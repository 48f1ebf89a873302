package entity

import (
	"time"

	"github.com/andrewyi/streamcrawler/src/enum"
)

// 下载的内容
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// 已访问记录，Key为去除query/fragment后的url
type VisitRecord struct {
	Key       string
	VisitedAt time.Time
}

// Candidate 由extractor产生的url，Depth为发现它的页面所在深度
type Candidate struct {
	URL      string
	Source   string
	Depth    int
	Terminal bool // .m3u/.m3u8，可直接播放的流地址
}

// 一次展开的结果
type Expansion struct {
	Candidates []Candidate
	Fetched    int
	Failed     int
}

type ValidationResult struct {
	URL         string
	Outcome     enum.Outcome
	StatusCode  int
	ContentType string
	Remark      string // error description, if any
}

// Partition 校验结果按valid/invalid划分，Invalid中包含OutcomeError
type Partition struct {
	Valid   []ValidationResult
	Invalid []ValidationResult
}

func (p Partition) ValidURLs() []string {
	urls := make([]string, 0, len(p.Valid))
	for _, r := range p.Valid {
		urls = append(urls, r.URL)
	}
	return urls
}

// 一次运行的统计
type RunReport struct {
	RunID        string
	PagesCrawled int
	Fetched      int
	FetchFailed  int
	Candidates   int
	Terminal     int
	FrontierSize int
	Valid        int
	Invalid      int
	Errors       int
}
