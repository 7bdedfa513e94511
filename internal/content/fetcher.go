package content

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

// Fetcher 在 RSS 正文过短时抓取原文
type Fetcher struct {
	below   int
	timeout time.Duration
	fetch   func(url string, timeout time.Duration) (readability.Article, error)
}

// NewFetcher 根据 content 配置创建抓取器，fetch_full_below 为 0 时不抓取
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		below:   cfg.Content.FetchFullBelow,
		timeout: cfg.Content.FetchTimeoutDuration(),
		fetch: func(url string, timeout time.Duration) (readability.Article, error) {
			return readability.FromURL(url, timeout)
		},
	}
}

// Expand 返回用于构造提示词的正文 HTML。
// 只有正文纯文本短于阈值且有原文链接时才抓取，任何失败都回退到条目自身内容。
func (f *Fetcher) Expand(e *model.Entry) string {
	if f == nil || f.below <= 0 || e.URL == "" {
		return e.Content
	}
	text := strings.TrimSpace(tagPattern.ReplaceAllString(e.Content, " "))
	if utf8.RuneCountInString(text) >= f.below {
		return e.Content
	}

	article, err := f.fetch(e.URL, f.timeout)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"entry_id": e.ID, "url": e.URL}).
			Warnf("原文抓取失败，使用 RSS 正文: %v", err)
		return e.Content
	}
	if len(strings.TrimSpace(article.TextContent)) <= len(text) {
		return e.Content
	}
	logger.Log.WithField("entry_id", e.ID).Debugf("已抓取原文，长度 %d", article.Length)
	return article.Content
}
