package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SummaryAgent 该名称的 agent 输出会写入摘要缓存
const SummaryAgent = "summary"

// Agent 单个增强策略
type Agent struct {
	Name       string
	Title      string
	Prompt     string
	StyleBlock bool
	// AllowList / DenyList 为 nil 表示未配置，空切片表示配置了但为空
	AllowList               []string
	DenyList                []string
	AutoTranslateNonChinese bool
}

// Agents 按配置文件中的书写顺序排列，也是执行顺序
type Agents []Agent

type rawAgent struct {
	Title                   string    `yaml:"title"`
	Prompt                  string    `yaml:"prompt"`
	StyleBlock              bool      `yaml:"style_block"`
	AllowList               *[]string `yaml:"allow_list"`
	DenyList                *[]string `yaml:"deny_list"`
	Whitelist               *[]string `yaml:"whitelist"` // Deprecated: use allow_list
	Blacklist               *[]string `yaml:"blacklist"` // Deprecated: use deny_list
	AutoTranslateNonChinese bool      `yaml:"auto_translate_non_chinese"`
}

// UnmarshalYAML 按映射顺序解码 agents，并一次性处理 whitelist/blacklist 旧字段
func (a *Agents) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: agents 必须是映射", value.Line)
	}
	out := make(Agents, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("line %d: agent 名称无效: %w", value.Content[i].Line, err)
		}
		var raw rawAgent
		if err := value.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("agent %s: %w", name, err)
		}
		out = append(out, raw.resolve(name))
	}
	*a = out
	return nil
}

func (r rawAgent) resolve(name string) Agent {
	return Agent{
		Name:                    name,
		Title:                   r.Title,
		Prompt:                  r.Prompt,
		StyleBlock:              r.StyleBlock,
		AllowList:               pickList(r.AllowList, r.Whitelist),
		DenyList:                pickList(r.DenyList, r.Blacklist),
		AutoTranslateNonChinese: r.AutoTranslateNonChinese,
	}
}

func pickList(primary, legacy *[]string) []string {
	p := primary
	if p == nil {
		p = legacy
	}
	if p == nil {
		return nil
	}
	if *p == nil {
		return []string{}
	}
	return *p
}

// HasStyleBlock 是否有任一 agent 使用块样式渲染
func (a Agents) HasStyleBlock() bool {
	for _, ag := range a {
		if ag.StyleBlock {
			return true
		}
	}
	return false
}
