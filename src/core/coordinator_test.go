package core

import (
	"context"
	"errors"
	"io/ioutil"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewyi/streamcrawler/src/analyzer"
	"github.com/andrewyi/streamcrawler/src/downloader"
	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/enum"
	"github.com/andrewyi/streamcrawler/src/expander"
	"github.com/andrewyi/streamcrawler/src/filestorage"
	"github.com/andrewyi/streamcrawler/src/limiter"
	"github.com/andrewyi/streamcrawler/src/store"
	"github.com/andrewyi/streamcrawler/src/util"
)

type fakeDownloader struct {
	mu     sync.Mutex
	pages  map[string]string
	counts map[string]int
}

func (f *fakeDownloader) Download(ctx context.Context, url string) (entity.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[url]++
	body, ok := f.pages[url]
	if !ok {
		return entity.Page{}, &downloader.FetchError{URL: url, StatusCode: 404}
	}
	return entity.Page{URL: url, Body: []byte(body)}, nil
}

func (f *fakeDownloader) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, c := range f.counts {
		n += c
	}
	return n
}

// 指定的url视为有效，其余无效
type fakeValidator struct {
	live  map[string]bool
	calls [][]string
}

func (v *fakeValidator) Validate(ctx context.Context, urls []string) entity.Partition {
	v.calls = append(v.calls, urls)
	var p entity.Partition
	for _, u := range urls {
		if v.live[u] {
			p.Valid = append(p.Valid, entity.ValidationResult{URL: u, Outcome: enum.OutcomeValid, StatusCode: 200})
		} else {
			p.Invalid = append(p.Invalid, entity.ValidationResult{URL: u, Outcome: enum.OutcomeInvalid, StatusCode: 404})
		}
	}
	return p
}

type failingBackend struct {
	store.Backend
}

func (failingBackend) Save(*store.State) error {
	return &store.PersistenceError{Op: "save", Path: "nowhere", Err: errors.New("disk full")}
}

type fixture struct {
	dir       string
	backend   *filestorage.SimpleFileStorage
	download  *fakeDownloader
	validator *fakeValidator
	opts      Options
}

func newFixture(t *testing.T, seeds []string, pages map[string]string) *fixture {
	dir := t.TempDir()
	f := &fixture{
		dir:       dir,
		backend:   filestorage.NewSimpleFileStorage(filepath.Join(dir, "visited.json"), filepath.Join(dir, "queue.json")),
		download:  &fakeDownloader{pages: pages},
		validator: &fakeValidator{live: map[string]bool{}},
		opts: Options{
			SeedFile:   filepath.Join(dir, "seeds.txt"),
			FoundFile:  filepath.Join(dir, "found_links.txt"),
			ValidFile:  filepath.Join(dir, "valid_links.txt"),
			PageBudget: 50,
		},
	}
	require.NoError(t, util.WriteLinesAtomic(f.opts.SeedFile, seeds))
	return f
}

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}

func (f *fixture) coordinator(backend store.Backend) *Coordinator {
	logger := testLogger()
	newExpander := func(visited *store.Visited) expander.Expander {
		return expander.NewSimpleExpander(expander.Options{MaxDepth: 2}, visited, f.download,
			analyzer.NewSimpleAnalyzer(), limiter.NewLimiter(0), nil, logger)
	}
	return NewCoordinator(f.opts, backend, newExpander, f.validator, logger)
}

func (f *fixture) lines(t *testing.T, path string) []string {
	lines, err := util.ReadLines(path)
	require.NoError(t, err)
	return lines
}

func assertDisjoint(t *testing.T, s *store.State) {
	for _, u := range s.Frontier {
		_, ok := s.Visited[util.URLKey(u)]
		assert.False(t, ok, "%s is both queued and visited", u)
	}
}

func TestRunPlaylistSeed(t *testing.T) {
	f := newFixture(t, []string{"http://example.test/list.m3u8"}, map[string]string{
		"http://example.test/list.m3u8": "#EXTINF:-1,Chan\nhttp://cdn.test/stream1.m3u8\n",
	})
	f.validator.live["http://cdn.test/stream1.m3u8"] = true

	report, err := f.coordinator(f.backend).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, f.validator.calls, 1)
	assert.Equal(t, []string{"http://cdn.test/stream1.m3u8"}, f.validator.calls[0])
	assert.Equal(t, []string{"http://cdn.test/stream1.m3u8"}, f.lines(t, f.opts.ValidFile))
	assert.Equal(t, []string{"http://cdn.test/stream1.m3u8"}, f.lines(t, f.opts.FoundFile))
	assert.Equal(t, 1, report.PagesCrawled)
	assert.Equal(t, 1, report.Terminal)
	assert.Equal(t, 1, report.Valid)

	state, err := f.backend.Load()
	require.NoError(t, err)
	assert.Contains(t, state.Visited, "http://example.test/list.m3u8")
	assert.Contains(t, state.Visited, "http://cdn.test/stream1.m3u8")
	assert.Empty(t, state.Frontier)
	assertDisjoint(t, state)
}

func TestRunVisitedSeed(t *testing.T) {
	f := newFixture(t, []string{"http://example.test/list.m3u8"}, map[string]string{
		"http://example.test/list.m3u8": "http://cdn.test/stream1.m3u8\n",
	})
	require.NoError(t, f.backend.Save(&store.State{
		Visited: map[string]time.Time{"http://example.test/list.m3u8": time.Now()},
	}))

	report, err := f.coordinator(f.backend).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, f.download.total())
	assert.Equal(t, 0, report.PagesCrawled)
	assert.Equal(t, 0, report.Candidates)
	assert.Empty(t, f.lines(t, f.opts.ValidFile))
}

func TestRunHypertextSeed(t *testing.T) {
	f := newFixture(t, []string{"http://example.test/index.html"}, map[string]string{
		"http://example.test/index.html": `<a href="page2.html">2</a> inline https://cdn.test/a.m3u8 text`,
	})
	f.opts.PageBudget = 1

	report, err := f.coordinator(f.backend).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, f.download.counts["https://cdn.test/a.m3u8"])
	assert.Equal(t, 0, f.download.counts["http://example.test/page2.html"])
	assert.Equal(t, []string{"https://cdn.test/a.m3u8"}, f.lines(t, f.opts.FoundFile))

	state, err := f.backend.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.test/page2.html"}, state.Frontier)
	assertDisjoint(t, state)
}

func TestRunBudgetAndResume(t *testing.T) {
	f := newFixture(t, []string{
		"http://site.test/a.html",
		"http://site.test/b.html",
		"http://site.test/c.html",
	}, map[string]string{
		"http://site.test/a.html": `<a href="/d.html">d</a> http://cdn.test/1.m3u8`,
		"http://site.test/b.html": `<a href="/a.html">a</a> http://cdn.test/1.m3u8 http://cdn.test/2.m3u8`,
		"http://site.test/c.html": `http://cdn.test/3.m3u8`,
		"http://site.test/d.html": `http://cdn.test/1.m3u8`,
	})
	f.opts.PageBudget = 2

	first, err := f.coordinator(f.backend).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.PagesCrawled)
	assert.Equal(t, 2, first.Terminal)

	state, err := f.backend.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://site.test/c.html", "http://site.test/d.html"}, state.Frontier)
	assertDisjoint(t, state)

	// 第二次运行从持久化的frontier继续，不再读取seed
	second, err := f.coordinator(f.backend).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.PagesCrawled)
	// 1.m3u8在上一次运行中已访问，不再作为新发现
	assert.Equal(t, 1, second.Terminal)

	state, err = f.backend.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Frontier)

	for u, n := range f.download.counts {
		assert.Equal(t, 1, n, u)
	}
	found := f.lines(t, f.opts.FoundFile)
	sort.Strings(found)
	assert.Equal(t, []string{"http://cdn.test/1.m3u8", "http://cdn.test/2.m3u8", "http://cdn.test/3.m3u8"}, found)
}

func TestRunKeywordFilter(t *testing.T) {
	f := newFixture(t, []string{"http://site.test/"}, map[string]string{
		"http://site.test/": `<a href="/news.html">n</a><a href="/live-tv.html">l</a><a href="/lists.json">j</a>`,
	})
	f.opts.Keywords = []string{"tv"}
	f.opts.PageBudget = 1

	_, err := f.coordinator(f.backend).Run(context.Background())
	require.NoError(t, err)

	state, err := f.backend.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://site.test/live-tv.html"}, state.Frontier)
}

func TestRunCorruptStateColdStart(t *testing.T) {
	f := newFixture(t, []string{"http://example.test/list.m3u8"}, map[string]string{
		"http://example.test/list.m3u8": "http://cdn.test/s.m3u8\n",
	})
	require.NoError(t, ioutil.WriteFile(filepath.Join(f.dir, "visited.json"), []byte("{not json"), 0644))

	report, err := f.coordinator(f.backend).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.PagesCrawled)

	state, err := f.backend.Load()
	require.NoError(t, err)
	assert.Contains(t, state.Visited, "http://example.test/list.m3u8")
}

func TestRunSaveFailure(t *testing.T) {
	f := newFixture(t, []string{"http://example.test/list.m3u8"}, map[string]string{
		"http://example.test/list.m3u8": "http://cdn.test/s.m3u8\n",
	})

	_, err := f.coordinator(failingBackend{Backend: f.backend}).Run(context.Background())
	var perr *store.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "save", perr.Op)
	// 保存失败时不进行校验
	assert.Empty(t, f.validator.calls)
}

func TestRunCancelledStillPersists(t *testing.T) {
	f := newFixture(t, []string{"http://example.test/a.html", "http://example.test/b.html"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.coordinator(f.backend).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	state, err := f.backend.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.test/a.html", "http://example.test/b.html"}, state.Frontier)
	assert.Empty(t, f.validator.calls)
}

func TestValidateLinks(t *testing.T) {
	f := newFixture(t, nil, nil)
	require.NoError(t, util.AppendLines(f.opts.FoundFile, []string{"http://cdn.test/a.m3u8", "http://cdn.test/b.m3u8"}))
	f.validator.live["http://cdn.test/b.m3u8"] = true

	report, err := f.coordinator(f.backend).ValidateLinks(context.Background(), f.opts.FoundFile)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Valid)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, []string{"http://cdn.test/b.m3u8"}, f.lines(t, f.opts.ValidFile))
}

func TestReset(t *testing.T) {
	f := newFixture(t, nil, nil)
	require.NoError(t, f.backend.Save(&store.State{
		Visited: map[string]time.Time{
			"http://a.test/1": time.Now(),
			"http://a.test/2": time.Now(),
		},
		Frontier: []string{"http://a.test/3"},
	}))
	c := f.coordinator(f.backend)

	n, err := c.Reset([]string{"http://a.test/1?x=1", "http://a.test/missing"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	state, err := f.backend.Load()
	require.NoError(t, err)
	assert.Len(t, state.Visited, 1)
	assert.Equal(t, []string{"http://a.test/3"}, state.Frontier)

	n, err = c.Reset(nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	state, err = f.backend.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Visited)
}
