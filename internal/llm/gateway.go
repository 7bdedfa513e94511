package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/metrics"
)

// RateWindowPeriod 调用频率统计窗口
const RateWindowPeriod = time.Minute

// ErrEmptyCompletion 模型没有返回任何消息
var ErrEmptyCompletion = errors.New("empty completion")

// GenerationError 生成服务调用失败或超时
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ChatModel eino 聊天模型中本项目用到的部分
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// NewChatModel 初始化 OpenAI 兼容的聊天模型
func NewChatModel(cfg *config.Config) (ChatModel, error) {
	cm, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return cm, nil
}

// NewRateWindowFromConfig 按 llm.rpm 创建每分钟滑动窗口
func NewRateWindowFromConfig(cfg *config.Config) *RateWindow {
	return NewRateWindow(cfg.LLM.RPM, RateWindowPeriod)
}

// Gateway 带限流的生成服务入口，所有 worker 共用一个实例
type Gateway struct {
	model   ChatModel
	window  *RateWindow
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGateway 创建生成网关，llm.qps > 0 时额外做每秒平滑
func NewGateway(cfg *config.Config, cm ChatModel, window *RateWindow) *Gateway {
	g := &Gateway{
		model:   cm,
		window:  window,
		timeout: cfg.LLM.CallTimeout(),
	}
	if cfg.LLM.QPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.LLM.QPS), cfg.LLM.QPS)
		logger.Log.Infof("限流器已配置: RPM=%d, QPS=%d", cfg.LLM.RPM, cfg.LLM.QPS)
	}
	return g
}

// Generate 发送 system + user 提示词并返回生成文本。
// 窗口已满时阻塞等待；调用失败不重试，统一包装为 *GenerationError。
func (g *Gateway) Generate(ctx context.Context, system, user string) (string, error) {
	waitStart := time.Now()
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", &GenerationError{Err: err}
		}
	}
	release, err := g.window.Acquire(ctx)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	defer release()
	metrics.RateWaitDuration.Observe(time.Since(waitStart).Seconds())

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: user},
	}

	start := time.Now()
	resp, err := g.model.Generate(callCtx, messages)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err == nil && resp == nil {
		err = ErrEmptyCompletion
	}
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("error").Inc()
		return "", &GenerationError{Err: err}
	}
	metrics.GenerationsTotal.WithLabelValues("ok").Inc()
	return resp.Content, nil
}
