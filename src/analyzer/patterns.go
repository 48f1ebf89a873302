package analyzer

import (
	"regexp"
)

var (
	// 以.m3u或.m3u8结尾、不含空白/引号/尖括号的http(s)字面量
	playlistPattern = regexp.MustCompile(`https?://[^\s'"<>]+\.m3u8?`)
	// 到下一个空白或引号为止
	urlPattern = regexp.MustCompile(`https?://[^\s'"]+`)

	locationPattern = regexp.MustCompile(`(?is)<location(?:\s[^>]*)?>(.*?)</location\s*>`)
	urlTagPattern   = regexp.MustCompile(`(?is)<url(?:\s[^>]*)?>(.*?)</url\s*>`)
	cdataPattern    = regexp.MustCompile(`(?s)^<!\[CDATA\[(.*)\]\]>$`)
)

func scanPlaylistURLs(body []byte) []string {
	return findAll(playlistPattern, body)
}

func scanURLs(body []byte) []string {
	return findAll(urlPattern, body)
}

func findAll(re *regexp.Regexp, body []byte) []string {
	s := newURLSet()
	for _, m := range re.FindAll(body, -1) {
		s.add(string(m))
	}
	return s.items
}
