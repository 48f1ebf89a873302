package downloader

import (
	"context"

	"github.com/andrewyi/streamcrawler/src/entity"
)

// 失败时返回ErrTimeout、ErrTooLarge或*FetchError，不返回部分内容
type Downloader interface {
	Download(ctx context.Context, url string) (entity.Page, error)
}
