// 以json文件保存状态，格式与最初的脚本保持兼容
// visited.json: {"url": unix秒(浮点)}
// queue.json:   ["url", ...]
package filestorage

import (
	"time"

	"github.com/andrewyi/streamcrawler/src/store"
)

var _ store.Backend = (*SimpleFileStorage)(nil)

type visitedDoc map[string]float64

type queueDoc []string

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnix(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}
