package core

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/streamcrawler/src/analyzer"
	"github.com/andrewyi/streamcrawler/src/store"
	"github.com/andrewyi/streamcrawler/src/util"
)

// 导入seed文件，仅在frontier为空时调用，返回入队数量
func CreateSeedRecord(logger log.FieldLogger, frontier *store.Frontier, seedFilePath string) (int, error) {
	urls, err := util.ReadLines(seedFilePath)
	if err != nil {
		return 0, err
	}

	var n int
	for _, u := range urls {
		if !util.IsHTTP(u) {
			logger.WithField("url", u).Warn("skip non-http seed")
			continue
		}
		if frontier.Push(u) {
			n++
		}
	}
	return n, nil
}

// 关键词文件每行一个，与配置中的hints合并，统一小写
// 文件不存在时只使用hints
func LoadKeywords(keywordFilePath string, hints []string) ([]string, error) {
	seen := make(map[string]struct{})
	var keywords []string
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}

	for _, h := range hints {
		add(h)
	}
	if keywordFilePath == "" {
		return keywords, nil
	}
	lines, err := util.ReadLines(keywordFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return keywords, nil
		}
		return keywords, err
	}
	for _, l := range lines {
		add(l)
	}
	return keywords, nil
}

// 没有关键词时全部放行；playlist/xml总是放行
func Interesting(u string, keywords []string) bool {
	if len(keywords) == 0 || analyzer.IsExpandable(u) {
		return true
	}
	l := strings.ToLower(u)
	for _, k := range keywords {
		if strings.Contains(l, k) {
			return true
		}
	}
	return false
}
