package validator

import (
	"context"

	"github.com/andrewyi/streamcrawler/src/entity"
)

// 对一批url做存活检查，不重试，结果顺序不保证
type Validator interface {
	Validate(ctx context.Context, urls []string) entity.Partition
}
