package content

import (
	"html"
	"strings"
)

// BlockOpenTag 块样式输出的起始标签，同时作为“已处理”标记
const BlockOpenTag = `<div style="border: 1px solid #e5e7eb; border-radius: 12px; padding: 16px; ` +
	`margin: 16px 0; background-color: #f9fafb; box-shadow: inset 0 1px 0 rgba(255, 255, 255, 0.6);">`

// LegacyBlockOpenTag 旧版本块样式直接以 <pre 开头
const LegacyBlockOpenTag = "<pre"

// Separator 每个 agent 输出之后的分隔
const Separator = "<hr><br />"

// RenderBlock 以带边框的引用块渲染，正文转义并保留空白
func RenderBlock(title, text string) string {
	var sb strings.Builder
	sb.WriteString(BlockOpenTag)
	sb.WriteString(`<div style="font-size: 1.05em; font-weight: 600; color: #374151; margin-bottom: 8px;">`)
	sb.WriteString(title)
	sb.WriteString(`</div>`)
	sb.WriteString(`<pre style="white-space: pre-wrap; font-family: 'SFMono-Regular', Menlo, Monaco, Consolas, 'Liberation Mono', 'Courier New', monospace; `)
	sb.WriteString(`font-size: 0.96em; line-height: 1.6; color: #1f2937; margin: 0;">` + "\n")
	sb.WriteString(html.EscapeString(strings.TrimSpace(text)))
	sb.WriteString("\n</pre></div>")
	sb.WriteString(Separator)
	return sb.String()
}

// RenderInline 标题后直接跟 markdown 渲染结果
func RenderInline(title, text string) string {
	return title + MarkdownToHTML(text) + Separator
}
