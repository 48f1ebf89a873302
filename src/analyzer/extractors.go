package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/andrewyi/streamcrawler/src/entity"
)

type PlaylistExtractor struct{}

func (PlaylistExtractor) Extract(page entity.Page) ([]string, error) {
	return scanPlaylistURLs(page.Body), nil
}

// 以正则匹配<location>与<url>的文本内容，不依赖完整的xml解析
type MarkupExtractor struct{}

func (MarkupExtractor) Extract(page entity.Page) ([]string, error) {
	base, _ := url.Parse(page.URL)
	s := newURLSet()
	for _, re := range []*regexp.Regexp{locationPattern, urlTagPattern} {
		for _, m := range re.FindAllSubmatch(page.Body, -1) {
			s.add(resolve(base, markupText(m[1])))
		}
	}
	return s.items, nil
}

func markupText(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if m := cdataPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(html.UnescapeString(text))
}

// json解析失败时不返回解析错误给调用方中断流程，原始文本扫描总是执行
type DataExtractor struct{}

func (DataExtractor) Extract(page entity.Page) ([]string, error) {
	s := newURLSet()

	var tree interface{}
	dec := json.NewDecoder(bytes.NewReader(page.Body))
	dec.UseNumber()
	err := dec.Decode(&tree)
	if err == nil {
		walk(tree, s)
	} else {
		err = fmt.Errorf("%w: %s: %v", ErrParseFailure, page.URL, err)
	}

	s.addAll(scanURLs(page.Body))
	return s.items, err
}

func walk(node interface{}, s *urlSet) {
	switch v := node.(type) {
	case map[string]interface{}:
		for _, child := range v {
			walk(child, s)
		}
	case []interface{}:
		for _, child := range v {
			walk(child, s)
		}
	case string:
		if t := strings.TrimSpace(v); isHTTP(t) {
			s.add(t)
		}
	}
}

type TextExtractor struct{}

func (TextExtractor) Extract(page entity.Page) ([]string, error) {
	return scanURLs(page.Body), nil
}

func isHTTP(u string) bool {
	l := strings.ToLower(u)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// 相对地址补全为绝对地址，去掉fragment，仅保留http/https
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		r = base.ResolveReference(r)
	}
	if r.Scheme != "http" && r.Scheme != "https" {
		return ""
	}
	r.Fragment = ""
	r.RawFragment = ""
	return r.String()
}
