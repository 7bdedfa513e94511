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
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

// ErrCacheCorruptionRecovered 缓存文件不存在或不是合法 JSON，已按空数组处理
var ErrCacheCorruptionRecovered = errors.New("summary cache missing or invalid, treated as empty")

// CacheStore 摘要缓存，文件内容为 SummaryRecord 的 JSON 数组。
// 整个进程共用一个实例，所有读改写都在同一把锁内完成。
type CacheStore struct {
	mu   sync.Mutex
	path string
}

// NewCacheStore 创建摘要缓存
func NewCacheStore(cfg *config.Config) *CacheStore {
	return &CacheStore{path: cfg.Storage.EntriesFile}
}

// NewCacheStoreAt 使用指定文件路径创建摘要缓存
func NewCacheStoreAt(path string) *CacheStore {
	return &CacheStore{path: path}
}

// Append 追加一条记录
func (s *CacheStore) Append(record model.SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.read()
	records = append(records, record)
	if err := writeJSON(s.path, records); err != nil {
		return fmt.Errorf("写入摘要缓存失败: %w", err)
	}
	return nil
}

// DrainAll 读出全部记录并立即把文件重置为空数组。
// 读出后、调用方使用前进程崩溃会丢失这一批记录，属于已知限制。
func (s *CacheStore) DrainAll() ([]model.SummaryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.read()
	if err := writeJSON(s.path, []model.SummaryRecord{}); err != nil {
		return nil, fmt.Errorf("清空摘要缓存失败: %w", err)
	}
	return records, nil
}

// Load 只读地返回当前记录
func (s *CacheStore) Load() []model.SummaryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *CacheStore) read() []model.SummaryRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Log.Warnf("%v: %s: %v", ErrCacheCorruptionRecovered, s.path, err)
		}
		return []model.SummaryRecord{}
	}

	var records []model.SummaryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Log.Warnf("%v: %s: %v", ErrCacheCorruptionRecovered, s.path, err)
		return []model.SummaryRecord{}
	}
	if records == nil {
		records = []model.SummaryRecord{}
	}
	return records
}
