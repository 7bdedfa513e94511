package miniflux

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mfclient "miniflux.app/v2/client"
)

type fakeAPI struct {
	entries  []*mfclient.Entry
	filter   *mfclient.Filter
	updated  map[int64]string
	feeds    mfclient.Feeds
	created  *mfclient.FeedCreationRequest
	refresh  []int64
	meErr    error
	entryErr error
}

func (f *fakeAPI) Me() (*mfclient.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &mfclient.User{Username: "admin"}, nil
}

func (f *fakeAPI) Entries(filter *mfclient.Filter) (*mfclient.EntryResultSet, error) {
	f.filter = filter
	if f.entryErr != nil {
		return nil, f.entryErr
	}
	return &mfclient.EntryResultSet{Total: len(f.entries), Entries: f.entries}, nil
}

func (f *fakeAPI) UpdateEntry(id int64, changes *mfclient.EntryModificationRequest) (*mfclient.Entry, error) {
	if f.updated == nil {
		f.updated = map[int64]string{}
	}
	f.updated[id] = *changes.Content
	return &mfclient.Entry{ID: id}, nil
}

func (f *fakeAPI) Feeds() (mfclient.Feeds, error) { return f.feeds, nil }

func (f *fakeAPI) CreateFeed(req *mfclient.FeedCreationRequest) (int64, error) {
	f.created = req
	return 42, nil
}

func (f *fakeAPI) RefreshFeed(id int64) error {
	f.refresh = append(f.refresh, id)
	return nil
}

func TestClient_ListUnread(t *testing.T) {
	created := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	api := &fakeAPI{entries: []*mfclient.Entry{
		{
			ID: 1, Title: "Hello", URL: "https://news.com/1", Content: "<p>Hi</p>", CreatedAt: created,
			Feed: &mfclient.Feed{ID: 5, Title: "News", SiteURL: "https://news.com",
				Category: &mfclient.Category{ID: 2, Title: "Tech"}},
		},
		{ID: 2, Title: "Orphan"},
		nil,
	}}
	c := NewClientWithAPI(api)

	entries, err := c.ListUnread(100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, mfclient.EntryStatusUnread, api.filter.Status)
	assert.Equal(t, 100, api.filter.Limit)

	assert.Equal(t, int64(1), entries[0].ID)
	assert.Equal(t, "https://news.com", entries[0].Feed.SiteURL)
	assert.Equal(t, "Tech", entries[0].Feed.Category.Title)
	assert.Equal(t, created, entries[0].CreatedAt)

	assert.Equal(t, "Orphan", entries[1].Title)
	assert.Empty(t, entries[1].Feed.SiteURL)
}

func TestClient_ListUnreadError(t *testing.T) {
	c := NewClientWithAPI(&fakeAPI{entryErr: errors.New("401")})
	_, err := c.ListUnread(10)
	assert.Error(t, err)
}

func TestClient_Me(t *testing.T) {
	name, err := NewClientWithAPI(&fakeAPI{}).Me()
	require.NoError(t, err)
	assert.Equal(t, "admin", name)

	_, err = NewClientWithAPI(&fakeAPI{meErr: errors.New("dial tcp")}).Me()
	assert.ErrorContains(t, err, "dial tcp")
}

func TestClient_FeedOperations(t *testing.T) {
	api := &fakeAPI{feeds: mfclient.Feeds{{ID: 7, Title: "֎Newsᴬᴵ for you"}}}
	c := NewClientWithAPI(api)

	require.NoError(t, c.UpdateContent(3, "<p>new</p>"))
	assert.Equal(t, "<p>new</p>", api.updated[3])

	refs, err := c.ListFeeds()
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, int64(7), refs[0].ID)

	id, err := c.CreateFeed(1, "https://ai.example.com/rss/ai-news")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(1), api.created.CategoryID)
	assert.Equal(t, "https://ai.example.com/rss/ai-news", api.created.FeedURL)

	require.NoError(t, c.RefreshFeed(7))
	assert.Equal(t, []int64{7}, api.refresh)
}
