// 简单的http GET下载，限制超时与body大小
// 支持gzip/deflate/br，html内容按声明的charset转为utf-8
package downloader

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/enum"
)

type SimpleDownloader struct {
	timeout     time.Duration
	maxBodySize int64
	userAgent   string

	client *http.Client
}

// timeout单位为秒，0时使用默认值
func NewSimpleDownloader(timeout uint32, maxBodySize int64, userAgent string) *SimpleDownloader {
	if timeout == 0 {
		timeout = enum.DefaultFetchTimeout
	}
	if maxBodySize <= 0 {
		maxBodySize = enum.DefaultMaxBodySize
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &SimpleDownloader{
		timeout:     time.Duration(timeout) * time.Second,
		maxBodySize: maxBodySize,
		userAgent:   userAgent,
		client:      &http.Client{Transport: transport},
	}
}

// 供robots等复用连接
func (s *SimpleDownloader) Client() *http.Client {
	return s.client
}

func (s *SimpleDownloader) Download(ctx context.Context, url string) (entity.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.Page{}, &FetchError{URL: url, Err: err}
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := s.client.Do(req)
	if err != nil {
		return entity.Page{}, ClassifyError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(ioutil.Discard, io.LimitReader(resp.Body, 4096))
		return entity.Page{}, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if resp.ContentLength > s.maxBodySize {
		return entity.Page{}, fmt.Errorf("%w: %s declares %d bytes", ErrTooLarge, url, resp.ContentLength)
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := s.readBody(url, resp)
	if err != nil {
		return entity.Page{}, err
	}

	return entity.Page{
		URL:         url,
		ContentType: contentType,
		Body:        toUTF8(body, contentType),
	}, nil
}

func (s *SimpleDownloader) readBody(url string, resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &FetchError{URL: url, Err: fmt.Errorf("gzip decode: %w", err)}
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl, err := deflateReader(resp.Body)
		if err != nil {
			return nil, &FetchError{URL: url, Err: fmt.Errorf("deflate decode: %w", err)}
		}
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	// 多读1字节用于判断是否超限，超限时丢弃已读内容
	body, err := ioutil.ReadAll(io.LimitReader(reader, s.maxBodySize+1))
	if err != nil {
		return nil, ClassifyError(url, err)
	}
	if int64(len(body)) > s.maxBodySize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, s.maxBodySize)
	}
	return body, nil
}

// deflate按规范是zlib封装，部分服务器直接发送裸deflate流
func deflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(header) == 0 {
		return ioutil.NopCloser(br), nil
	}
	if len(header) == 2 && header[0]&0x0f == 8 && (uint16(header[0])<<8|uint16(header[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// 仅处理html，playlist等文本保持原样
func toUTF8(body []byte, contentType string) []byte {
	if !strings.Contains(strings.ToLower(contentType), "html") {
		return body
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	converted, err := ioutil.ReadAll(r)
	if err != nil {
		return body
	}
	return converted
}
