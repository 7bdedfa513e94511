package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
)

// DigestStore 每日新闻产物，文件内容是一个 JSON 字符串
type DigestStore struct {
	mu   sync.Mutex
	path string
}

// NewDigestStore 创建每日新闻产物存储
func NewDigestStore(cfg *config.Config) *DigestStore {
	return &DigestStore{path: cfg.Storage.DigestFile}
}

// NewDigestStoreAt 使用指定文件路径创建
func NewDigestStoreAt(path string) *DigestStore {
	return &DigestStore{path: path}
}

// Write 覆盖写入新的每日新闻
func (s *DigestStore) Write(digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(s.path, digest); err != nil {
		return fmt.Errorf("写入每日新闻失败: %w", err)
	}
	return nil
}

// Take 读出当前内容并清空，只能被消费一次
func (s *DigestStore) Take() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var digest string
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Log.Warnf("%s 不存在，返回空内容", s.path)
	case err != nil:
		logger.Log.Errorf("读取 %s 失败: %v", s.path, err)
	default:
		if err := json.Unmarshal(data, &digest); err != nil {
			logger.Log.Errorf("解析 %s 失败: %v", s.path, err)
			digest = ""
		}
	}

	if err := writeJSON(s.path, ""); err != nil {
		return digest, fmt.Errorf("清空每日新闻失败: %w", err)
	}
	return digest, nil
}
