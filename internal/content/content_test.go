package content

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/stretchr/testify/assert"

	"github.com/iWorld-y/miniflux_ai/internal/model"
)

func TestPlainText(t *testing.T) {
	e := &model.Entry{Title: "Breaking", Content: `<p class="x">Hello <b>world</b></p>`}
	got := PlainText(e)
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, ">")
	assert.Contains(t, got, "Breaking")
	assert.Contains(t, got, "Hello")
	assert.Contains(t, got, "world")
}

func TestContainsCJK(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"ascii", "Hello world", false},
		{"empty", "", false},
		{"chinese", "这是一个测试", true},
		{"mixed", "Go 语言", true},
		{"lower bound", "\u4e00", true},
		{"upper bound", "\u9fff", true},
		{"just below", "\u4dff", false},
		{"just above", "\ua000", false},
		{"hiragana only", "ひらがな", false},
		{"kanji counts", "日本語", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsCJK(tt.text))
		})
	}
}

func TestToDisplayMarkup(t *testing.T) {
	got := ToDisplayMarkup("<h1>Title</h1><p>Hello <strong>world</strong></p>")
	assert.Contains(t, got, "# Title")
	assert.Contains(t, got, "**world**")
	assert.NotContains(t, got, "<p>")
}

func TestMarkdownToHTML_Sanitizes(t *testing.T) {
	got := MarkdownToHTML("**bold**\n\n<script>alert(1)</script>")
	assert.Contains(t, got, "<strong>bold</strong>")
	assert.NotContains(t, got, "<script")
}

func TestFetcher_Expand(t *testing.T) {
	calls := 0
	f := &Fetcher{
		below:   50,
		timeout: time.Second,
		fetch: func(url string, timeout time.Duration) (readability.Article, error) {
			calls++
			if url == "https://fail.example" {
				return readability.Article{}, errors.New("boom")
			}
			return readability.Article{
				Content:     "<article>full body</article>",
				TextContent: strings.Repeat("full body ", 20),
			}, nil
		},
	}

	short := &model.Entry{ID: 1, URL: "https://ok.example", Content: "<p>tiny</p>"}
	assert.Equal(t, "<article>full body</article>", f.Expand(short))

	failing := &model.Entry{ID: 2, URL: "https://fail.example", Content: "<p>tiny</p>"}
	assert.Equal(t, "<p>tiny</p>", f.Expand(failing))

	long := &model.Entry{ID: 3, URL: "https://ok.example", Content: "<p>" + strings.Repeat("x", 60) + "</p>"}
	assert.Equal(t, long.Content, f.Expand(long))

	noURL := &model.Entry{ID: 4, Content: "<p>tiny</p>"}
	assert.Equal(t, "<p>tiny</p>", f.Expand(noURL))

	assert.Equal(t, 2, calls)
}

func TestFetcher_DisabledOrNil(t *testing.T) {
	e := &model.Entry{URL: "https://ok.example", Content: "c"}
	var nilFetcher *Fetcher
	assert.Equal(t, "c", nilFetcher.Expand(e))
	assert.Equal(t, "c", (&Fetcher{}).Expand(e))
}
