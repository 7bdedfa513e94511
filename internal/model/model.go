package model

import "time"

// Entry Miniflux 中的一篇文章，JSON 字段与 webhook 负载保持一致
type Entry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Feed      Feed      `json:"feed"`
}

// Feed 文章所属订阅源，只读
type Feed struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	SiteURL  string   `json:"site_url"`
	Category Category `json:"category"`
}

// Category 订阅源分类
type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// FeedRef 订阅源列表中的一项
type FeedRef struct {
	ID    int64
	Title string
}

// SummaryRecord 摘要缓存中的一条记录，供每日新闻汇总使用
type SummaryRecord struct {
	Datetime time.Time `json:"datetime"`
	Category string    `json:"category"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
}
