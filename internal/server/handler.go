package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/content"
	"github.com/iWorld-y/miniflux_ai/internal/engine"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

const (
	// SignatureHeader Miniflux webhook 签名头
	SignatureHeader = "X-Miniflux-Signature"
	// FeedTitle 每日新闻订阅的频道标题
	FeedTitle = "֎Newsᴬᴵ for you"
	feedLink  = "https://ai-news.miniflux"
	// MaxWebhookBody webhook 请求体上限
	MaxWebhookBody = 10 << 20
)

// ErrSignatureMismatch webhook 签名校验失败
var ErrSignatureMismatch = errors.New("webhook signature mismatch")

// BatchProcessor 批处理引擎
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, source string, entries []model.Entry) engine.BatchResult
}

// DigestSource 每日新闻产物，读出即清空
type DigestSource interface {
	Take() (string, error)
}

// webhookPayload Miniflux new_entries 事件
type webhookPayload struct {
	Feed    model.Feed    `json:"feed"`
	Entries []model.Entry `json:"entries"`
}

// Handler HTTP 接口实现
type Handler struct {
	batch   BatchProcessor
	digests DigestSource
	secret  string
	maxBody int64
	now     func() time.Time
}

// NewHandler 创建 HTTP 接口
func NewHandler(cfg *config.Config, batch BatchProcessor, digests DigestSource) *Handler {
	if cfg.Miniflux.WebhookSecret == "" {
		logger.Log.Warn("未配置 webhook_secret，将跳过签名校验")
	}
	return &Handler{
		batch:   batch,
		digests: digests,
		secret:  cfg.Miniflux.WebhookSecret,
		maxBody: MaxWebhookBody,
		now:     time.Now,
	}
}

// VerifySignature 校验 body 的 HMAC-SHA256 十六进制签名，未配置密钥时直接通过
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Webhook 处理 POST /api/miniflux-ai
func (h *Handler) Webhook(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		nethttp.Error(w, "method not allowed", nethttp.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(nethttp.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *nethttp.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Log.Warnf("webhook 请求体超过 %d 字节，已拒绝", tooLarge.Limit)
			nethttp.Error(w, "request body too large", nethttp.StatusRequestEntityTooLarge)
			return
		}
		nethttp.Error(w, "read body failed", nethttp.StatusBadRequest)
		return
	}
	if err := VerifySignature(h.secret, body, r.Header.Get(SignatureHeader)); err != nil {
		logger.Log.Warn("签名校验失败，拒绝 webhook 请求")
		nethttp.Error(w, err.Error(), nethttp.StatusForbidden)
		return
	}

	var payload webhookPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			logger.Log.Warnf("webhook 负载解析失败: %v", err)
			nethttp.Error(w, "invalid payload", nethttp.StatusBadRequest)
			return
		}
	}
	for i := range payload.Entries {
		payload.Entries[i].Feed = payload.Feed
	}
	logger.Log.WithFields(logrus.Fields{
		"entries": len(payload.Entries),
		"feed":    payload.Feed.Title,
	}).Info("收到 webhook")

	// 批处理不跟随请求超时或断开而取消，只受单次生成超时约束
	res := h.batch.ProcessBatch(context.WithoutCancel(r.Context()), "webhook", payload.Entries)
	if res.Failed > 0 {
		logger.Log.Warnf("webhook 处理完成，失败 %d 篇", res.Failed)
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"status": "error", "failed": res.Failed})
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"status": "ok"})
}

// AINews 处理 GET /rss/ai-news，输出后清空产物
func (h *Handler) AINews(w nethttp.ResponseWriter, r *nethttp.Request) {
	digest, err := h.digests.Take()
	if err != nil {
		logger.Log.Errorf("读取每日新闻失败: %v", err)
		digest = ""
	}

	rss, err := BuildFeed(digest, h.now())
	if err != nil {
		logger.Log.Errorf("生成 RSS 失败: %v", err)
		nethttp.Error(w, "render feed failed", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = io.WriteString(w, rss)
}

// BuildFeed 生成每日新闻 RSS，digest 为空时只有欢迎条目
func BuildFeed(digest string, now time.Time) (string, error) {
	feed := &feeds.Feed{
		Id:          feedLink,
		Title:       FeedTitle,
		Link:        &feeds.Link{Href: feedLink},
		Description: "Powered by miniflux-ai",
		Author:      &feeds.Author{Name: "miniflux-ai"},
		Created:     now,
	}
	feed.Add(&feeds.Item{
		Id:          feedLink,
		Title:       "Welcome to Newsᴬᴵ",
		Link:        &feeds.Link{Href: feedLink},
		Description: content.MarkdownToHTML("Welcome to Newsᴬᴵ"),
		Created:     now,
	})

	if digest != "" {
		stamp := feedLink + now.Format("2006-01-02-15-04")
		feed.Add(&feeds.Item{
			Id:          stamp,
			Title:       ItemTitle(now),
			Link:        &feeds.Link{Href: stamp},
			Description: content.MarkdownToHTML(digest),
			Created:     now,
		})
		logger.Log.Infof("发布每日新闻 %s", stamp)
	}
	return feed.ToRss()
}

// ItemTitle 12 点前为早报，否则为晚报
func ItemTitle(now time.Time) string {
	edition := "Nightly"
	if now.Hour() < 12 {
		edition = "Morning"
	}
	return fmt.Sprintf("%s Newsᴬᴵ for you - %s", edition, now.Format("2006-01-02"))
}

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
