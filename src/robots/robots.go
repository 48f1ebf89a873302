// 基本的robots.txt许可检查，按host缓存，获取失败时放行
package robots

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/andrewyi/streamcrawler/src/util"
)

const maxRobotsSize = 512 * 1024

type Agent struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	ttl       time.Duration
	logger    *log.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// timeout限制单次robots.txt请求，client自身可以没有超时
func NewAgent(client *http.Client, userAgent string, timeout, ttl time.Duration, logger *log.Logger) *Agent {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Agent{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
		ttl:       ttl,
		logger:    logger,
		cache:     make(map[string]cacheEntry),
	}
}

func (a *Agent) Allowed(ctx context.Context, target string) bool {
	u, err := url.Parse(target)
	if err != nil || !u.IsAbs() {
		return false
	}

	rules, err := a.rules(ctx, u)
	if err != nil {
		if a.logger != nil {
			a.logger.WithError(err).WithField("host", u.Host).Debug("robots unavailable, allow")
		}
		return true
	}

	agent := a.userAgent
	if agent == "" {
		agent = "*"
	}
	return rules.TestAgent(pathOf(u), agent)
}

func pathOf(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

func (a *Agent) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	domain, err := util.GetDomain(target.String())
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(target.Scheme + "://" + domain + ":" + portOf(target))

	a.mu.RLock()
	entry, ok := a.cache[key]
	a.mu.RUnlock()
	if ok && time.Since(entry.fetched) < a.ttl {
		return entry.rules, nil
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	// 4xx视为全部允许，5xx视为全部禁止，由robotstxt按状态码处理
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	a.mu.Lock()
	a.cache[key] = cacheEntry{fetched: time.Now(), rules: data}
	a.mu.Unlock()

	return data, nil
}

func portOf(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if strings.EqualFold(u.Scheme, "https") {
		return "443"
	}
	return "80"
}
