package expander

import (
	"context"

	"github.com/andrewyi/streamcrawler/src/entity"
)

// 从一个url出发按深度展开，抓取失败不会向上返回错误
type Expander interface {
	Expand(ctx context.Context, seed string) entity.Expansion
}

// robots等访问许可检查
type Permission interface {
	Allowed(ctx context.Context, url string) bool
}
