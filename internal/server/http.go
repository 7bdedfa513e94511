package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/metrics"
)

// NewHTTPServer 创建 HTTP 服务并注册路由
func NewHTTPServer(cfg *config.Config, h *Handler) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if cfg.Server.Addr != "" {
		opts = append(opts, http.Address(cfg.Server.Addr))
	}
	// kratos 默认 1s 超时，这里总是显式设置
	opts = append(opts, http.Timeout(requestTimeout(cfg.Server.Timeout)))

	srv := http.NewServer(opts...)
	srv.HandleFunc("/api/miniflux-ai", h.Webhook)
	srv.HandleFunc("/rss/ai-news", h.AINews)
	srv.Handle("/metrics", metrics.Handler())
	return srv
}

// requestTimeout 解析 server.timeout，空值或非法值视为不限制
func requestTimeout(v string) time.Duration {
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		logger.Log.Warnf("server.timeout 无效 %q，不设请求超时", v)
		return 0
	}
	return d
}
