package downloader

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleDownloader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/list.m3u8", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.Write([]byte("#EXTM3U\nhttp://cdn.test/a.m3u8\n"))
	})
	mux.HandleFunc("/big.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		// 不声明Content-Length，只能在读取过程中发现超限
		f := w.(http.Flusher)
		for i := 0; i < 4; i++ {
			w.Write(bytes.Repeat([]byte("x"), 512))
			f.Flush()
		}
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/gzip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("https://cdn.test/z.m3u8"))
		gz.Close()
	})
	mux.HandleFunc("/zlib", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "deflate")
		zw := zlib.NewWriter(w)
		zw.Write([]byte("https://cdn.test/zlib.m3u8"))
		zw.Close()
	})
	mux.HandleFunc("/rawdeflate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "deflate")
		fw, _ := flate.NewWriter(w, flate.DefaultCompression)
		fw.Write([]byte("https://cdn.test/raw.m3u8"))
		fw.Close()
	})
	mux.HandleFunc("/latin1.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<p>caf\xe9</p>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := NewSimpleDownloader(5, 1024, "test-agent")

	t.Run("returns body and declared type", func(tt *testing.T) {
		page, err := d.Download(context.Background(), server.URL+"/list.m3u8")
		require.NoError(tt, err)
		assert.Equal(tt, "application/vnd.apple.mpegurl", page.ContentType)
		assert.Contains(tt, string(page.Body), "http://cdn.test/a.m3u8")
	})

	t.Run("aborts streams over the size limit", func(tt *testing.T) {
		page, err := d.Download(context.Background(), server.URL+"/big.txt")
		assert.True(tt, errors.Is(err, ErrTooLarge))
		assert.Nil(tt, page.Body)
	})

	t.Run("non-2xx is a fetch error with status", func(tt *testing.T) {
		_, err := d.Download(context.Background(), server.URL+"/missing")
		var fErr *FetchError
		require.True(tt, errors.As(err, &fErr))
		assert.Equal(tt, http.StatusNotFound, fErr.StatusCode)
		assert.Equal(tt, server.URL+"/missing", fErr.URL)
	})

	t.Run("connection failure is a fetch error", func(tt *testing.T) {
		_, err := d.Download(context.Background(), "http://127.0.0.1:1/unreachable")
		var fErr *FetchError
		require.True(tt, errors.As(err, &fErr))
		assert.Equal(tt, 0, fErr.StatusCode)
	})

	t.Run("slow response times out", func(tt *testing.T) {
		fast := NewSimpleDownloader(1, 1024, "")
		fast.timeout = 100 * time.Millisecond
		_, err := fast.Download(context.Background(), server.URL+"/slow")
		assert.True(tt, IsTimeout(err), "%v", err)
	})

	t.Run("decodes gzip bodies", func(tt *testing.T) {
		page, err := d.Download(context.Background(), server.URL+"/gzip")
		require.NoError(tt, err)
		assert.Equal(tt, "https://cdn.test/z.m3u8", string(page.Body))
	})

	t.Run("decodes zlib wrapped deflate bodies", func(tt *testing.T) {
		page, err := d.Download(context.Background(), server.URL+"/zlib")
		require.NoError(tt, err)
		assert.Equal(tt, "https://cdn.test/zlib.m3u8", string(page.Body))
	})

	t.Run("decodes raw deflate bodies", func(tt *testing.T) {
		page, err := d.Download(context.Background(), server.URL+"/rawdeflate")
		require.NoError(tt, err)
		assert.Equal(tt, "https://cdn.test/raw.m3u8", string(page.Body))
	})

	t.Run("transcodes declared html charset", func(tt *testing.T) {
		page, err := d.Download(context.Background(), server.URL+"/latin1.html")
		require.NoError(tt, err)
		assert.True(tt, strings.Contains(string(page.Body), "café"))
	})
}
