// Package agent 对单篇文章依次执行配置中的 agent，并把输出拼接成一段 HTML。
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/content"
	"github.com/iWorld-y/miniflux_ai/internal/filter"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

const (
	// ContentPlaceholder 提示词中的正文占位符
	ContentPlaceholder = "${content}"
	defaultSystem      = "You are a helpful assistant."
)

// Generator 生成服务
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// SummarySink 接收 summary agent 的输出
type SummarySink interface {
	Append(record model.SummaryRecord) error
}

// Runner 单篇文章的 agent 执行器
type Runner struct {
	agents  config.Agents
	policy  filter.Policy
	gen     Generator
	sink    SummarySink
	fetcher *content.Fetcher
}

// NewRunner 创建执行器，fetcher 可为 nil
func NewRunner(cfg *config.Config, gen Generator, sink SummarySink, fetcher *content.Fetcher) *Runner {
	return &Runner{
		agents:  cfg.Agents,
		policy:  filter.NewPolicy(cfg),
		gen:     gen,
		sink:    sink,
		fetcher: fetcher,
	}
}

// Run 按配置顺序执行 agent，返回拼接后的 HTML；没有 agent 产生输出时返回空串。
// 任一 agent 失败立即返回，剩余 agent 不再执行。
func (r *Runner) Run(ctx context.Context, e *model.Entry) (string, error) {
	log := logger.Log.WithFields(logrus.Fields{"entry_id": e.ID, "feed": e.Feed.Title})
	log.Infof("开始处理文章: %s", e.Title)

	var (
		result    strings.Builder
		display   string
		converted bool
	)
	for _, ag := range r.agents {
		if !r.policy.ShouldRun(r.agents, ag, e) {
			log.Debugf("agent %s 被过滤规则跳过", ag.Name)
			continue
		}

		if !converted {
			display = content.ToDisplayMarkup(r.fetcher.Expand(e))
			converted = true
		}
		system, user := buildPrompt(ag.Prompt, display)

		start := time.Now()
		text, err := r.gen.Generate(ctx, system, user)
		if err != nil {
			log.Errorf("agent %s 调用失败: %v", ag.Name, err)
			return "", fmt.Errorf("agent %s: %w", ag.Name, err)
		}
		log.Infof("agent %s 完成，耗时 %.2fs，预览: %s",
			ag.Name, time.Since(start).Seconds(), logger.Preview(text, 120))

		if ag.Name == config.SummaryAgent {
			record := model.SummaryRecord{
				Datetime: e.CreatedAt,
				Category: e.Feed.Category.Title,
				Title:    e.Title,
				Content:  text,
			}
			if err := r.sink.Append(record); err != nil {
				return "", fmt.Errorf("agent %s: %w", ag.Name, err)
			}
			log.Debug("摘要已写入缓存")
		}

		result.WriteString(render(ag, text))
	}
	return result.String(), nil
}

// buildPrompt 提示词含占位符时整体作为用户消息，否则作为系统消息
func buildPrompt(prompt, display string) (system, user string) {
	if strings.Contains(prompt, ContentPlaceholder) {
		return defaultSystem, strings.ReplaceAll(prompt, ContentPlaceholder, display)
	}
	return prompt, "\n---\n " + display
}

func render(ag config.Agent, text string) string {
	if ag.StyleBlock {
		return content.RenderBlock(ag.Title, text)
	}
	return content.RenderInline(ag.Title, text)
}
