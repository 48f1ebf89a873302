package filestorage

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"time"

	"github.com/andrewyi/streamcrawler/src/store"
	"github.com/andrewyi/streamcrawler/src/util"
)

type SimpleFileStorage struct {
	visitedPath string
	queuePath   string
}

func NewSimpleFileStorage(visitedPath string, queuePath string) *SimpleFileStorage {
	return &SimpleFileStorage{
		visitedPath: visitedPath,
		queuePath:   queuePath,
	}
}

// 文件不存在视为空状态；内容损坏返回PersistenceError，由调用方决定是否冷启动
func (s *SimpleFileStorage) Load() (*store.State, error) {
	var state = &store.State{}

	var visited visitedDoc
	if err := readJSON(s.visitedPath, &visited); err != nil {
		return nil, &store.PersistenceError{Op: "load", Path: s.visitedPath, Err: err}
	}
	state.Visited = make(map[string]time.Time, len(visited))
	for u, ts := range visited {
		state.Visited[u] = fromUnix(ts)
	}

	var queue queueDoc
	if err := readJSON(s.queuePath, &queue); err != nil {
		return nil, &store.PersistenceError{Op: "load", Path: s.queuePath, Err: err}
	}
	state.Frontier = queue

	return state, nil
}

// 两个文件分别原子替换
func (s *SimpleFileStorage) Save(state *store.State) error {
	visited := make(visitedDoc, len(state.Visited))
	for u, t := range state.Visited {
		visited[u] = toUnix(t)
	}
	if err := writeJSON(s.visitedPath, visited); err != nil {
		return &store.PersistenceError{Op: "save", Path: s.visitedPath, Err: err}
	}

	queue := queueDoc(state.Frontier)
	if queue == nil {
		queue = queueDoc{}
	}
	if err := writeJSON(s.queuePath, queue); err != nil {
		return &store.PersistenceError{Op: "save", Path: s.queuePath, Err: err}
	}
	return nil
}

func (s *SimpleFileStorage) Close() error {
	return nil
}

func readJSON(filePath string, out interface{}) error {
	data, err := ioutil.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func writeJSON(filePath string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(filePath, data)
}
