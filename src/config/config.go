package config

import (
	"github.com/andrewyi/streamcrawler/src/enum"
)

type Config struct {
	Log struct {
		Context bool   `mapstructure:"context"`
		Level   string `mapstructure:"level"`
	} `mapstructure:"log"`

	Crawl struct {
		SeedFile        string   `mapstructure:"seed_file"`
		KeywordFile     string   `mapstructure:"keyword_file"`
		Hints           []string `mapstructure:"hints"`
		MaxDepth        int      `mapstructure:"max_depth"`
		PageBudget      int      `mapstructure:"page_budget"`
		PolitenessDelay uint32   `mapstructure:"politeness_delay"` // ms
		Parallelism     int      `mapstructure:"parallelism"`
	} `mapstructure:"crawl"`

	Downloader struct {
		Timeout     uint32 `mapstructure:"timeout"` // seconds
		MaxBodySize int64  `mapstructure:"max_body_size"`
		UserAgent   string `mapstructure:"user_agent"`
	} `mapstructure:"downloader"`

	Validator struct {
		Worker            uint32   `mapstructure:"worker"`
		Timeout           uint32   `mapstructure:"timeout"` // seconds
		StrictContentType bool     `mapstructure:"strict_content_type"`
		ContentTypes      []string `mapstructure:"content_types"`
	} `mapstructure:"validator"`

	Robots struct {
		Respect  bool   `mapstructure:"respect"`
		CacheTTL uint32 `mapstructure:"cache_ttl"` // seconds
	} `mapstructure:"robots"`

	Storage struct {
		Backend     string `mapstructure:"backend"` // file | postgres
		VisitedFile string `mapstructure:"visited_file"`
		QueueFile   string `mapstructure:"queue_file"`
		FoundFile   string `mapstructure:"found_file"`
		ValidFile   string `mapstructure:"valid_file"`
	} `mapstructure:"storage"`

	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
}

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// 默认值，配置文件与环境变量可覆盖
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"log.context": false,
		"log.level":   "info",

		"crawl.seed_file":        "seeds.txt",
		"crawl.keyword_file":     "",
		"crawl.hints":            []string{},
		"crawl.max_depth":        enum.DefaultMaxDepth,
		"crawl.page_budget":      enum.DefaultPageBudget,
		"crawl.politeness_delay": enum.DefaultPolitenessDelay,
		"crawl.parallelism":      1,

		"downloader.timeout":       enum.DefaultFetchTimeout,
		"downloader.max_body_size": enum.DefaultMaxBodySize,
		"downloader.user_agent":    enum.DefaultUserAgent,

		"validator.worker":              enum.DefaultValidateWorker,
		"validator.timeout":             enum.DefaultValidateTimeout,
		"validator.strict_content_type": false,
		"validator.content_types": []string{
			"application/vnd.apple.mpegurl",
			"application/x-mpegurl",
			"audio/mpegurl",
			"audio/x-mpegurl",
		},

		"robots.respect":   true,
		"robots.cache_ttl": 1800,

		"storage.backend":      BackendFile,
		"storage.visited_file": "visited.json",
		"storage.queue_file":   "queue.json",
		"storage.found_file":   "found_links.txt",
		"storage.valid_file":   "valid_links.txt",

		"database.url": "",
	}
}
