package util

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// filePath为空时仅使用defaults与环境变量
func ReadConfig(filePath string, defaults map[string]interface{}, out interface{}) error {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // for nested structure
	v.AutomaticEnv()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return err
	}

	return nil
}

// 移除url的query、fragment，作为去重的key
func NormalizeURL(u string) (string, error) {
	oURL, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return "", err
	}
	oURL.RawQuery = ""
	oURL.ForceQuery = false
	oURL.Fragment = ""
	oURL.RawFragment = ""
	return oURL.String(), nil
}

// 无法解析的url直接以原始字符串作为key
func URLKey(u string) string {
	k, err := NormalizeURL(u)
	if err != nil {
		return strings.TrimSpace(u)
	}
	return k
}

// host中可能残留有:port信息，需要进一步移除
func GetDomain(u string) (string, error) {
	oURL, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	return strings.Split(oURL.Host, ":")[0], nil
}

// 返回url path的小写扩展名，例如 ".m3u8"
func PathExt(u string) string {
	oURL, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(oURL.Path))
}

func IsHTTP(u string) bool {
	l := strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// 按行读取，忽略空行
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanLines)
	var lines []string
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func AppendLines(filePath string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if err := ensureDir(filePath); err != nil {
		return err
	}
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// 先写入同目录下的临时文件，fsync后rename覆盖，保证目标文件不会处于写了一半的状态
func WriteFileAtomic(filePath string, data []byte) error {
	if err := ensureDir(filePath); err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(filepath.Dir(filePath), "."+filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}

func WriteLinesAtomic(filePath string, lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return WriteFileAtomic(filePath, []byte(b.String()))
}

func ensureDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, os.ModePerm)
}
