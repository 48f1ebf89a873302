package downloader

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrTimeout  = errors.New("fetch timeout")
	ErrTooLarge = errors.New("response body too large")
)

// FetchError 网络/协议错误或非2xx响应，StatusCode为0表示没有拿到响应
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ClassifyError 将http client返回的错误归类为ErrTimeout或*FetchError
func ClassifyError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, url)
	}
	var nErr net.Error
	if errors.As(err, &nErr) && nErr.Timeout() {
		return fmt.Errorf("%w: %s", ErrTimeout, url)
	}
	return &FetchError{URL: url, Err: err}
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
