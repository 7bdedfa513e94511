// Package filter 决定某个 agent 是否应处理某篇文章。
package filter

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/content"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

// Policy 过滤策略
type Policy struct {
	// LegacyAllowListFallback 见 config.FilterConfig
	LegacyAllowListFallback bool
}

// NewPolicy 从配置创建过滤策略
func NewPolicy(cfg *config.Config) Policy {
	return Policy{LegacyAllowListFallback: cfg.Filter.LegacyAllowListFallback}
}

// ShouldRun 使用默认策略判断
func ShouldRun(agents config.Agents, agent config.Agent, e *model.Entry) bool {
	return Policy{}.ShouldRun(agents, agent, e)
}

// ShouldRun 判断 agent 是否应处理该文章
func (p Policy) ShouldRun(agents config.Agents, agent config.Agent, e *model.Entry) bool {
	// 已带有任一 agent 的输出，不再重复处理
	for _, prefix := range sentinels(agents) {
		if strings.HasPrefix(e.Content, prefix) {
			return false
		}
	}

	hasCJK := content.ContainsCJK(content.PlainText(e))
	byLanguage := !agent.AutoTranslateNonChinese || !hasCJK
	siteURL := e.Feed.SiteURL

	switch {
	case agent.AllowList != nil:
		if matchAny(agent.AllowList, siteURL) {
			return byLanguage
		}
		if p.LegacyAllowListFallback {
			return agent.AutoTranslateNonChinese && !hasCJK
		}
		return false
	case agent.DenyList != nil:
		if matchAny(agent.DenyList, siteURL) {
			return false
		}
		return byLanguage
	default:
		return byLanguage
	}
}

func sentinels(agents config.Agents) []string {
	out := make([]string, 0, len(agents)+2)
	for _, a := range agents {
		if a.Title != "" {
			out = append(out, a.Title)
		}
	}
	if agents.HasStyleBlock() {
		out = append(out, content.LegacyBlockOpenTag, content.BlockOpenTag)
	}
	return out
}

var globCache sync.Map // pattern -> glob.Glob

// fnmatchLiterals fnmatch 中 '{' '}' '\' 是普通字符，glob 中需转义
var fnmatchLiterals = strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`)

// matchAny 以 shell 通配符语义匹配，'*' 可跨越 '/'，大小写敏感
func matchAny(patterns []string, url string) bool {
	for _, p := range patterns {
		g, ok := compile(p)
		if ok && g.Match(url) {
			return true
		}
	}
	return false
}

func compile(pattern string) (glob.Glob, bool) {
	if g, ok := globCache.Load(pattern); ok {
		return g.(glob.Glob), true
	}
	g, err := glob.Compile(fnmatchLiterals.Replace(pattern))
	if err != nil {
		logger.Log.Warnf("无效的 URL 匹配规则 %q: %v", pattern, err)
		return nil, false
	}
	globCache.Store(pattern, g)
	return g, true
}
