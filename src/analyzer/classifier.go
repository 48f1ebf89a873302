package analyzer

import (
	"mime"
	"net/url"
	"strings"

	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/enum"
	"github.com/andrewyi/streamcrawler/src/util"
)

// 只看path后缀，query/fragment不参与判断
func Classify(u string) enum.Kind {
	if _, err := url.Parse(strings.TrimSpace(u)); err != nil {
		return enum.KindUnknown
	}
	switch util.PathExt(u) {
	case ".m3u", ".m3u8":
		return enum.KindPlaylist
	case ".xml":
		return enum.KindStructuredMarkup
	case ".json":
		return enum.KindStructuredData
	case ".txt":
		return enum.KindPlainText
	default:
		return enum.KindHypertext
	}
}

// 可以继续展开的url：playlist或xml
func IsExpandable(u string) bool {
	switch Classify(u) {
	case enum.KindPlaylist, enum.KindStructuredMarkup:
		return true
	}
	return false
}

// 可直接播放的流地址
func IsTerminal(u string) bool {
	return Classify(u) == enum.KindPlaylist
}

// url无法判断类型时，参考响应声明的Content-Type
func ClassifyPage(page entity.Page) enum.Kind {
	kind := Classify(page.URL)
	if kind != enum.KindHypertext && kind != enum.KindUnknown {
		return kind
	}
	mediaType, _, err := mime.ParseMediaType(page.ContentType)
	if err != nil {
		return kind
	}
	switch mediaType = strings.ToLower(mediaType); {
	case strings.Contains(mediaType, "mpegurl"):
		return enum.KindPlaylist
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return enum.KindStructuredData
	case mediaType == "application/xml" || mediaType == "text/xml" || (strings.HasSuffix(mediaType, "+xml") && mediaType != "application/xhtml+xml"):
		return enum.KindStructuredMarkup
	case mediaType == "text/plain":
		return enum.KindPlainText
	}
	return kind
}
