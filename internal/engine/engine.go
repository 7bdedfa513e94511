package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/metrics"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

// UnreadLimit 每次轮询拉取的未读文章上限
const UnreadLimit = 10000

// EntryRunner 对单篇文章执行全部 agent
type EntryRunner interface {
	Run(ctx context.Context, e *model.Entry) (string, error)
}

// FeedService 引擎用到的 Miniflux 能力
type FeedService interface {
	ListUnread(limit int) ([]model.Entry, error)
	UpdateContent(entryID int64, content string) error
}

// WriteBackError Miniflux 拒绝了内容更新
type WriteBackError struct {
	EntryID int64
	Err     error
}

func (e *WriteBackError) Error() string {
	return fmt.Sprintf("write back entry %d: %v", e.EntryID, e.Err)
}

func (e *WriteBackError) Unwrap() error {
	return e.Err
}

// BatchResult 一批文章的处理结果
type BatchResult struct {
	Processed int
	Failed    int
	Duration  time.Duration
}

// Engine 核心处理引擎：把一批文章分发到有界的 worker 池
type Engine struct {
	runner  EntryRunner
	feeds   FeedService
	workers int
}

// NewEngine 创建引擎实例
func NewEngine(cfg *config.Config, runner EntryRunner, feeds FeedService) *Engine {
	workers := cfg.LLM.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	return &Engine{runner: runner, feeds: feeds, workers: workers}
}

// ProcessBatch 并发处理一批文章。单篇失败只计数，不影响其他文章；
// 所有文章都有结果后才返回。
func (e *Engine) ProcessBatch(ctx context.Context, source string, entries []model.Entry) BatchResult {
	start := time.Now()
	batchID := uuid.NewString()
	log := logger.Log.WithFields(logrus.Fields{"batch": batchID, "source": source})
	log.Infof("开始处理 %d 篇文章，并发数 %d", len(entries), e.workers)

	var (
		mu     sync.Mutex
		result BatchResult
		g      errgroup.Group
	)
	g.SetLimit(e.workers)

	for i := range entries {
		entry := &entries[i]
		g.Go(func() error {
			err := e.processEntry(ctx, entry)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				metrics.EntriesTotal.WithLabelValues(source, "failed").Inc()
				log.WithField("entry_id", entry.ID).Errorf("文章处理失败 [%s]: %v", entry.Title, err)
				return nil
			}
			result.Processed++
			metrics.EntriesTotal.WithLabelValues(source, "processed").Inc()
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(start)
	log.Infof("批次完成: processed=%d failed=%d duration=%.2fs",
		result.Processed, result.Failed, result.Duration.Seconds())
	return result
}

func (e *Engine) processEntry(ctx context.Context, entry *model.Entry) error {
	rendered, err := e.runner.Run(ctx, entry)
	if err != nil {
		return err
	}
	if rendered == "" {
		logger.Log.WithField("entry_id", entry.ID).Debug("没有 agent 产生输出，跳过回写")
		return nil
	}
	if err := e.feeds.UpdateContent(entry.ID, rendered+entry.Content); err != nil {
		return &WriteBackError{EntryID: entry.ID, Err: err}
	}
	logger.Log.WithField("entry_id", entry.ID).Info("已回写 agent 输出到 Miniflux")
	return nil
}

// PollUnread 拉取未读文章并处理
func (e *Engine) PollUnread(ctx context.Context) (BatchResult, error) {
	logger.Log.Info("开始拉取未读文章")
	entries, err := e.feeds.ListUnread(UnreadLimit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("拉取未读文章失败: %w", err)
	}
	if len(entries) == 0 {
		logger.Log.Info("没有未读文章")
		return BatchResult{}, nil
	}
	logger.Log.Infof("拉取到 %d 篇未读文章 (limit=%d)", len(entries), UnreadLimit)
	return e.ProcessBatch(ctx, "poll", entries), nil
}
