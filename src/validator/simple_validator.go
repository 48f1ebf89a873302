package validator

import (
	"context"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/streamcrawler/src/downloader"
	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/enum"
	"github.com/andrewyi/streamcrawler/src/routingpool"
)

// 只读取响应的开头部分，确认连接可用即可
const probeBytes = 512

type Options struct {
	Worker            uint32
	Timeout           time.Duration
	UserAgent         string
	StrictContentType bool
	ContentTypes      []string
}

type SimpleValidator struct {
	worker    uint32
	timeout   time.Duration
	userAgent string
	strict    bool
	types     map[string]struct{}
	logger    *log.Logger

	client *http.Client
}

func NewSimpleValidator(opts Options, logger *log.Logger) *SimpleValidator {
	if opts.Worker == 0 {
		opts.Worker = enum.DefaultValidateWorker
	}
	if opts.Timeout <= 0 {
		opts.Timeout = enum.DefaultValidateTimeout * time.Second
	}
	types := make(map[string]struct{}, len(opts.ContentTypes))
	for _, t := range opts.ContentTypes {
		types[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = int(opts.Worker)
	transport.MaxConnsPerHost = int(opts.Worker)

	return &SimpleValidator{
		worker:    opts.Worker,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		strict:    opts.StrictContentType,
		types:     types,
		logger:    logger,
		client:    &http.Client{Transport: transport},
	}
}

func (v *SimpleValidator) Validate(ctx context.Context, urls []string) entity.Partition {
	unique := dedupe(urls)
	var partition entity.Partition
	if len(unique) == 0 {
		return partition
	}

	size := v.worker
	if uint32(len(unique)) < size {
		size = uint32(len(unique))
	}

	jobs := make(chan string)
	results := make(chan entity.ValidationResult, len(unique))

	pool := routingpool.NewSimpleRoutingPool(ctx, size, func(ctx context.Context) {
		for u := range jobs {
			results <- v.probe(ctx, u)
		}
	})
	if err := pool.Start(); err != nil {
		v.logger.WithError(err).Error("fail to start validator pool")
		return partition
	}

	// worker全部繁忙时阻塞，不丢弃任务
	for _, u := range unique {
		jobs <- u
	}
	close(jobs)
	pool.Stop()
	close(results)

	for r := range results {
		if r.Outcome == enum.OutcomeValid {
			partition.Valid = append(partition.Valid, r)
		} else {
			partition.Invalid = append(partition.Invalid, r)
		}
	}
	return partition
}

func (v *SimpleValidator) probe(ctx context.Context, u string) entity.ValidationResult {
	var result = entity.ValidationResult{URL: u}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		result.Outcome = enum.OutcomeError
		result.Remark = err.Error()
		v.logResult(result)
		return result
	}
	if v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		result.Outcome = enum.OutcomeError
		if downloader.IsTimeout(downloader.ClassifyError(u, err)) {
			result.Remark = "timeout"
		} else {
			result.Remark = err.Error()
		}
		v.logResult(result)
		return result
	}
	io.CopyN(ioutil.Discard, resp.Body, probeBytes)
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	switch {
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		result.Outcome = enum.OutcomeInvalid
		result.Remark = resp.Status
	case v.strict && !v.acceptable(result.ContentType):
		result.Outcome = enum.OutcomeInvalid
		result.Remark = "unexpected content type " + result.ContentType
	default:
		result.Outcome = enum.OutcomeValid
	}
	v.logResult(result)
	return result
}

func (v *SimpleValidator) acceptable(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	_, ok := v.types[strings.ToLower(mediaType)]
	return ok
}

func (v *SimpleValidator) logResult(r entity.ValidationResult) {
	if v.logger == nil {
		return
	}
	entry := v.logger.WithFields(log.Fields{
		"url":     r.URL,
		"outcome": r.Outcome.String(),
		"status":  r.StatusCode,
	})
	if r.Remark != "" {
		entry = entry.WithField("remark", r.Remark)
	}
	entry.Debug("validated")
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
