// Package scheduler 驱动未读轮询与每日新闻的定时任务，实现 kratos transport.Server。
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/digest"
	"github.com/iWorld-y/miniflux_ai/internal/engine"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

const (
	// NewsFeedCategory 自动创建每日新闻订阅时使用的分类
	NewsFeedCategory int64 = 1
	// NewsFeedPath 每日新闻 RSS 路径
	NewsFeedPath = "/rss/ai-news"
)

// FeedAdmin 调度器用到的 Miniflux 能力
type FeedAdmin interface {
	Me() (string, error)
	ListFeeds() ([]model.FeedRef, error)
	CreateFeed(categoryID int64, feedURL string) (int64, error)
}

// Poller 未读轮询
type Poller interface {
	PollUnread(ctx context.Context) (engine.BatchResult, error)
}

// Composer 每日新闻生成
type Composer interface {
	Compose(ctx context.Context) (string, error)
}

// Scheduler 定时任务调度器
type Scheduler struct {
	feeds    FeedAdmin
	poller   Poller
	composer Composer

	pollEvery time.Duration
	schedule  []string
	newsURL   string
	retry     time.Duration

	cron *cron.Cron
	// 保护 cron 的启停，避免 Stop 之后再被 Start
	lifeMu sync.Mutex
	// poll 与 digest 互斥执行
	jobMu sync.Mutex
	// ctx 在 Stop 时取消，连接重试与正在执行的任务随之结束
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler 创建调度器
func NewScheduler(cfg *config.Config, feeds FeedAdmin, poller Poller, composer Composer) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		feeds:     feeds,
		poller:    poller,
		composer:  composer,
		pollEvery: PollInterval(cfg),
		schedule:  cfg.AINews.Schedule,
		newsURL:   strings.TrimRight(cfg.AINews.URL, "/"),
		retry:     3 * time.Second,
		cron:      cron.New(cron.WithLogger(cron.PrintfLogger(logger.Log))),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// PollInterval 配置了 webhook 时轮询只做兜底，间隔放宽到 15 分钟
func PollInterval(cfg *config.Config) time.Duration {
	if cfg.Miniflux.WebhookSecret != "" {
		return 15 * time.Minute
	}
	return time.Minute
}

// DailyCron 把 HH:MM 转成 cron 表达式
func DailyCron(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid schedule %q: %w", hhmm, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// Start 连接 Miniflux 后注册并启动定时任务，阻塞直到 ctx 结束或 Stop 被调用
func (s *Scheduler) Start(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()

	if err := s.connect(s.ctx); err != nil {
		// 被 Stop 打断属于正常退出
		return ctx.Err()
	}
	if err := s.register(); err != nil {
		return err
	}

	s.Poll()
	s.lifeMu.Lock()
	if s.ctx.Err() == nil {
		s.cron.Start()
		logger.Log.Info("调度器已启动")
	}
	s.lifeMu.Unlock()

	<-s.ctx.Done()
	return nil
}

// Stop 取消进行中的任务并停止调度，等待任务返回或 ctx 超时
func (s *Scheduler) Stop(ctx context.Context) error {
	s.lifeMu.Lock()
	s.cancel()
	done := s.cron.Stop()
	s.lifeMu.Unlock()
	select {
	case <-done.Done():
		logger.Log.Info("调度器已停止")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connect 每隔 retry 重试一次，直到连上 Miniflux 或 ctx 结束
func (s *Scheduler) connect(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		logger.Log.Infof("连接 Miniflux (第 %d 次)", attempt)
		name, err := s.feeds.Me()
		if err == nil {
			logger.Log.Infof("已连接 Miniflux，用户 %s", name)
			return nil
		}
		logger.Log.Warnf("连接 Miniflux 失败 (第 %d 次): %v", attempt, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retry):
		}
	}
}

func (s *Scheduler) register() error {
	logger.Log.Infof("每 %s 拉取一次未读文章", s.pollEvery)
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.pollEvery), s.Poll); err != nil {
		return fmt.Errorf("注册轮询任务失败: %w", err)
	}
	if len(s.schedule) == 0 {
		return nil
	}

	s.EnsureNewsFeed()
	for _, at := range s.schedule {
		expr, err := DailyCron(at)
		if err != nil {
			return err
		}
		if _, err := s.cron.AddFunc(expr, s.Digest); err != nil {
			return fmt.Errorf("注册每日新闻任务失败: %w", err)
		}
		logger.Log.Infof("每日 %s 生成每日新闻", at)
	}
	return nil
}

// EnsureNewsFeed 每日新闻订阅不存在时自动创建，失败只记录日志
func (s *Scheduler) EnsureNewsFeed() {
	feeds, err := s.feeds.ListFeeds()
	if err != nil {
		logger.Log.Errorf("获取订阅列表失败: %v", err)
		return
	}
	for _, f := range feeds {
		if strings.Contains(f.Title, digest.FeedTitleMarker) {
			return
		}
	}
	id, err := s.feeds.CreateFeed(NewsFeedCategory, s.newsURL+NewsFeedPath)
	if err != nil {
		logger.Log.Errorf("创建每日新闻订阅失败: %v", err)
		return
	}
	logger.Log.Infof("已在 Miniflux 中创建每日新闻订阅 feed_id=%d", id)
}

// Poll 执行一次未读轮询
func (s *Scheduler) Poll() {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if _, err := s.poller.PollUnread(s.ctx); err != nil {
		logger.Log.Errorf("未读轮询失败: %v", err)
	}
}

// Digest 执行一次每日新闻生成
func (s *Scheduler) Digest() {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if _, err := s.composer.Compose(s.ctx); err != nil {
		logger.Log.Errorf("每日新闻生成失败: %v", err)
	}
}
