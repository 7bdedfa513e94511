// Package digest 把摘要缓存汇总成每日新闻。
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/metrics"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

const (
	// FeedTitleMarker 用于在 Miniflux 中识别每日新闻订阅
	FeedTitleMarker = "Newsᴬᴵ for you"
	greetingLayout  = "January 02, 2006 at 03:04 PM"
	defaultSystem   = "You are a helpful assistant."
)

// Generator 生成服务
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Drainer 摘要缓存
type Drainer interface {
	DrainAll() ([]model.SummaryRecord, error)
}

// Writer 每日新闻产物
type Writer interface {
	Write(digest string) error
}

// FeedRefresher 用于刷新每日新闻订阅
type FeedRefresher interface {
	ListFeeds() ([]model.FeedRef, error)
	RefreshFeed(feedID int64) error
}

// Composer 每日新闻生成器
type Composer struct {
	cache   Drainer
	out     Writer
	gen     Generator
	feeds   FeedRefresher
	prompts config.AINewsPrompts
	now     func() time.Time
}

// NewComposer 创建每日新闻生成器
func NewComposer(cfg *config.Config, cache Drainer, out Writer, gen Generator, feeds FeedRefresher) *Composer {
	return &Composer{
		cache:   cache,
		out:     out,
		gen:     gen,
		feeds:   feeds,
		prompts: cfg.AINews.Prompts,
		now:     time.Now,
	}
}

// Compose 取出全部缓存摘要并生成一份每日新闻。缓存为空时返回空串。
// 缓存一经取出即清空，生成失败时这一批记录不会恢复。
func (c *Composer) Compose(ctx context.Context) (string, error) {
	logger.Log.Info("开始生成每日新闻")
	records, err := c.cache.DrainAll()
	if err != nil {
		metrics.DigestsTotal.WithLabelValues("failed").Inc()
		return "", err
	}
	if len(records) == 0 {
		logger.Log.Info("摘要缓存为空，跳过每日新闻")
		metrics.DigestsTotal.WithLabelValues("skipped").Inc()
		return "", nil
	}

	digest, err := c.compose(ctx, records)
	if err != nil {
		metrics.DigestsTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("生成每日新闻失败: %w", err)
	}
	logger.Log.Infof("每日新闻已生成 | items=%d | preview=%q", len(records), logger.Preview(digest, 160))

	if err := c.out.Write(digest); err != nil {
		metrics.DigestsTotal.WithLabelValues("failed").Inc()
		return "", err
	}
	metrics.DigestsTotal.WithLabelValues("ok").Inc()

	c.refreshFeed()
	return digest, nil
}

func (c *Composer) compose(ctx context.Context, records []model.SummaryRecord) (string, error) {
	contents := make([]string, 0, len(records))
	for _, r := range records {
		contents = append(contents, r.Content)
	}

	greeting, err := c.ask(ctx, c.prompts.Greeting, c.now().Format(greetingLayout))
	if err != nil {
		return "", fmt.Errorf("greeting: %w", err)
	}
	block, err := c.ask(ctx, c.prompts.SummaryBlock, strings.Join(contents, "\n"))
	if err != nil {
		return "", fmt.Errorf("summary_block: %w", err)
	}
	summary, err := c.ask(ctx, c.prompts.Summary, block)
	if err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}

	return greeting + "\n\n### 🌐Summary\n" + summary + "\n\n### 📝News\n" + block, nil
}

func (c *Composer) ask(ctx context.Context, prompt, input string) (string, error) {
	return c.gen.Generate(ctx, defaultSystem, input+"\n---\n"+prompt)
}

// refreshFeed 让 Miniflux 立即拉取新产物，失败只记录日志
func (c *Composer) refreshFeed() {
	if c.feeds == nil {
		return
	}
	feeds, err := c.feeds.ListFeeds()
	if err != nil {
		logger.Log.Warnf("获取订阅列表失败: %v", err)
		return
	}
	for _, f := range feeds {
		if !strings.Contains(f.Title, FeedTitleMarker) {
			continue
		}
		if err := c.feeds.RefreshFeed(f.ID); err != nil {
			logger.Log.Warnf("刷新每日新闻订阅失败 feed_id=%d: %v", f.ID, err)
			return
		}
		logger.Log.Debugf("已刷新每日新闻订阅 feed_id=%d", f.ID)
		return
	}
	logger.Log.Debug("未找到每日新闻订阅，跳过刷新")
}
