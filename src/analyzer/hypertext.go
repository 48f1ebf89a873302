package analyzer

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/andrewyi/streamcrawler/src/entity"
)

// 提取a标签href（按页面地址或<base>补全为绝对地址），
// 同时扫描原始文本中的.m3u/.m3u8地址，两者取并集
type HypertextExtractor struct{}

func (HypertextExtractor) Extract(page entity.Page) ([]string, error) {
	s := newURLSet()
	base, _ := url.Parse(page.URL)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrParseFailure, page.URL, err)
	} else {
		if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
			if b := resolve(base, href); b != "" {
				base, _ = url.Parse(b)
			}
		}
		doc.Find("a[href]").Each(func(_ int, element *goquery.Selection) {
			href, _ := element.Attr("href")
			s.add(resolve(base, href))
		})
	}

	s.addAll(scanPlaylistURLs(page.Body))
	return s.items, err
}
