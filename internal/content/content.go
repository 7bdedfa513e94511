// Package content 负责文章正文的清洗与格式转换：
// 分类用的纯文本、提示词用的 markdown、回写用的 HTML。
package content

import (
	"regexp"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"

	"github.com/iWorld-y/miniflux_ai/internal/model"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]+>`)
	ugcPolicy  = bluemonday.UGCPolicy()
)

// PlainText 拼接标题和正文并去掉所有标签，只用于语言判断
func PlainText(e *model.Entry) string {
	return tagPattern.ReplaceAllString(e.Title+"\n"+e.Content, " ")
}

// ContainsCJK 文本中是否含有 CJK 统一表意文字 (U+4E00–U+9FFF)。
// 这不是语言检测：日文汉字同样会命中。
func ContainsCJK(text string) bool {
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// ToDisplayMarkup 把文章 HTML 转成 markdown 供 LLM 阅读，转换失败时原样返回
func ToDisplayMarkup(html string) string {
	out, err := md.NewConverter("", true, nil).ConvertString(html)
	if err != nil {
		return html
	}
	return out
}

// MarkdownToHTML 渲染 LLM 输出的 markdown，并按 UGC 策略清洗
func MarkdownToHTML(text string) string {
	return string(ugcPolicy.SanitizeBytes(blackfriday.Run([]byte(text))))
}
