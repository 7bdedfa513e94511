// Package miniflux 封装 Miniflux API 客户端
package miniflux

import (
	"fmt"

	mfclient "miniflux.app/v2/client"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

// API 用到的 Miniflux 客户端方法
type API interface {
	Me() (*mfclient.User, error)
	Entries(filter *mfclient.Filter) (*mfclient.EntryResultSet, error)
	UpdateEntry(entryID int64, changes *mfclient.EntryModificationRequest) (*mfclient.Entry, error)
	Feeds() (mfclient.Feeds, error)
	CreateFeed(req *mfclient.FeedCreationRequest) (int64, error)
	RefreshFeed(feedID int64) error
}

// Client Miniflux 客户端
type Client struct {
	api API
}

// NewClient 使用 API Key 创建客户端
func NewClient(cfg *config.Config) *Client {
	return &Client{api: mfclient.NewClient(cfg.Miniflux.BaseURL, cfg.Miniflux.APIKey)}
}

// NewClientWithAPI 使用自定义实现创建客户端
func NewClientWithAPI(api API) *Client {
	return &Client{api: api}
}

// Me 校验连接，返回当前用户名
func (c *Client) Me() (string, error) {
	u, err := c.api.Me()
	if err != nil {
		return "", fmt.Errorf("连接 Miniflux 失败: %w", err)
	}
	return u.Username, nil
}

// ListUnread 拉取最多 limit 篇未读文章
func (c *Client) ListUnread(limit int) ([]model.Entry, error) {
	res, err := c.api.Entries(&mfclient.Filter{Status: mfclient.EntryStatusUnread, Limit: limit})
	if err != nil {
		return nil, err
	}
	entries := make([]model.Entry, 0, len(res.Entries))
	for _, e := range res.Entries {
		if e == nil {
			continue
		}
		entries = append(entries, toEntry(e))
	}
	return entries, nil
}

// UpdateContent 覆盖文章正文
func (c *Client) UpdateContent(entryID int64, content string) error {
	_, err := c.api.UpdateEntry(entryID, &mfclient.EntryModificationRequest{Content: &content})
	return err
}

// ListFeeds 列出全部订阅
func (c *Client) ListFeeds() ([]model.FeedRef, error) {
	feeds, err := c.api.Feeds()
	if err != nil {
		return nil, err
	}
	refs := make([]model.FeedRef, 0, len(feeds))
	for _, f := range feeds {
		if f == nil {
			continue
		}
		refs = append(refs, model.FeedRef{ID: f.ID, Title: f.Title})
	}
	return refs, nil
}

// CreateFeed 在指定分类下添加订阅
func (c *Client) CreateFeed(categoryID int64, feedURL string) (int64, error) {
	return c.api.CreateFeed(&mfclient.FeedCreationRequest{FeedURL: feedURL, CategoryID: categoryID})
}

// RefreshFeed 触发订阅刷新
func (c *Client) RefreshFeed(feedID int64) error {
	return c.api.RefreshFeed(feedID)
}

func toEntry(e *mfclient.Entry) model.Entry {
	entry := model.Entry{
		ID:        e.ID,
		Title:     e.Title,
		URL:       e.URL,
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
	}
	if e.Feed != nil {
		entry.Feed = model.Feed{ID: e.Feed.ID, Title: e.Feed.Title, SiteURL: e.Feed.SiteURL}
		if e.Feed.Category != nil {
			entry.Feed.Category = model.Category{ID: e.Feed.Category.ID, Title: e.Feed.Category.Title}
		}
	}
	return entry
}
