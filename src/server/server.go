package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/andrewyi/streamcrawler/src/analyzer"
	"github.com/andrewyi/streamcrawler/src/config"
	"github.com/andrewyi/streamcrawler/src/core"
	"github.com/andrewyi/streamcrawler/src/dbstorage"
	"github.com/andrewyi/streamcrawler/src/downloader"
	"github.com/andrewyi/streamcrawler/src/expander"
	"github.com/andrewyi/streamcrawler/src/filestorage"
	"github.com/andrewyi/streamcrawler/src/limiter"
	"github.com/andrewyi/streamcrawler/src/robots"
	"github.com/andrewyi/streamcrawler/src/store"
	"github.com/andrewyi/streamcrawler/src/util"
	"github.com/andrewyi/streamcrawler/src/validator"
)

type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
	config *config.Config

	backend     store.Backend
	coordinator *core.Coordinator
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) initLog() {
	var logger = log.New()
	logger.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	if s.config.Log.Context {
		logger.SetReportCaller(true)
	}

	if logLevel, err := log.ParseLevel(s.config.Log.Level); err != nil {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(logLevel)
	}
	s.logger = logger
}

func (s *Server) initBackend() error {
	cfg := s.config
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := dbstorage.NewSimpleDBStorage(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("fail to create dbstorage handler, err: %w", err)
		}
		s.backend = db
	case config.BackendFile, "":
		s.backend = filestorage.NewSimpleFileStorage(cfg.Storage.VisitedFile, cfg.Storage.QueueFile)
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

// 加载配置并组装各组件，所有子命令共用
func (s *Server) setup(ctx *cli.Context) error {
	configPath := ctx.GlobalString("config")
	if _, err := os.Stat(configPath); err != nil && os.IsNotExist(err) && !ctx.GlobalIsSet("config") {
		configPath = "" // 默认配置文件不存在时只使用默认值与环境变量
	}
	var cfg = &config.Config{}
	if err := util.ReadConfig(configPath, config.Defaults(), cfg); err != nil {
		return fmt.Errorf("fail to load config, err: %w", err)
	}
	s.config = cfg

	s.initLog()

	if err := s.initBackend(); err != nil {
		return err
	}

	keywords, err := core.LoadKeywords(cfg.Crawl.KeywordFile, cfg.Crawl.Hints)
	if err != nil {
		s.logger.WithError(err).WithField("file", cfg.Crawl.KeywordFile).Warn("fail to load keywords")
	}

	d := downloader.NewSimpleDownloader(cfg.Downloader.Timeout, cfg.Downloader.MaxBodySize, cfg.Downloader.UserAgent)
	a := analyzer.NewSimpleAnalyzer()
	l := limiter.NewLimiter(time.Duration(cfg.Crawl.PolitenessDelay) * time.Millisecond)

	var permission expander.Permission
	if cfg.Robots.Respect {
		permission = robots.NewAgent(d.Client(), cfg.Downloader.UserAgent,
			time.Duration(cfg.Downloader.Timeout)*time.Second,
			time.Duration(cfg.Robots.CacheTTL)*time.Second, s.logger)
	}

	newExpander := func(visited *store.Visited) expander.Expander {
		return expander.NewSimpleExpander(
			expander.Options{MaxDepth: cfg.Crawl.MaxDepth, Parallelism: cfg.Crawl.Parallelism},
			visited, d, a, l, permission, s.logger)
	}

	v := validator.NewSimpleValidator(validator.Options{
		Worker:            cfg.Validator.Worker,
		Timeout:           time.Duration(cfg.Validator.Timeout) * time.Second,
		UserAgent:         cfg.Downloader.UserAgent,
		StrictContentType: cfg.Validator.StrictContentType,
		ContentTypes:      cfg.Validator.ContentTypes,
	}, s.logger)

	s.coordinator = core.NewCoordinator(core.Options{
		SeedFile:   cfg.Crawl.SeedFile,
		FoundFile:  cfg.Storage.FoundFile,
		ValidFile:  cfg.Storage.ValidFile,
		PageBudget: cfg.Crawl.PageBudget,
		Keywords:   keywords,
	}, s.backend, newExpander, v, s.logger)

	go s.wait()
	return nil
}

// 一次发现+校验
func (s *Server) Crawl(ctx *cli.Context) error {
	if err := s.setup(ctx); err != nil {
		return err
	}
	defer s.Stop()

	report, err := s.coordinator.Run(s.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Crawled %d pages, found %d candidates (%d new stream links), valid %d, invalid %d, errors %d\n",
		report.PagesCrawled, report.Candidates, report.Terminal, report.Valid, report.Invalid, report.Errors)
	return nil
}

// 仅校验已有的链接文件
func (s *Server) Validate(ctx *cli.Context) error {
	if err := s.setup(ctx); err != nil {
		return err
	}
	defer s.Stop()

	input := ctx.String("input")
	if input == "" {
		input = s.config.Storage.FoundFile
	}
	report, err := s.coordinator.ValidateLinks(s.ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("Total valid links: %d (invalid %d, errors %d)\n", report.Valid, report.Invalid, report.Errors)
	return nil
}

// 从visited中移除url，使其可以再次被抓取
func (s *Server) Reset(ctx *cli.Context) error {
	urls := ctx.StringSlice("url")
	all := ctx.Bool("all")
	if len(urls) == 0 && !all {
		return fmt.Errorf("either --url or --all is required")
	}
	if err := s.setup(ctx); err != nil {
		return err
	}
	defer s.Stop()

	n, err := s.coordinator.Reset(urls, all)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d visited records\n", n)
	return nil
}

func (s *Server) wait() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	select {
	case <-c:
		s.logger.Warn("interrupt signal, saving state and stopping")
		s.cancel()
	case <-s.ctx.Done():
	}
}

func (s *Server) Stop() {
	s.cancel()
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.WithError(err).Warn("fail to close storage")
		}
	}
}
