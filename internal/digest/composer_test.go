package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/model"
)

type memCache struct {
	records []model.SummaryRecord
	drains  int
}

func (m *memCache) DrainAll() ([]model.SummaryRecord, error) {
	m.drains++
	out := m.records
	m.records = nil
	return out, nil
}

type memWriter struct{ written []string }

func (m *memWriter) Write(d string) error {
	m.written = append(m.written, d)
	return nil
}

// scriptedGen 按提示词返回固定结果
type scriptedGen struct {
	users []string
	fail  string
}

func (s *scriptedGen) Generate(_ context.Context, system, user string) (string, error) {
	s.users = append(s.users, user)
	switch {
	case s.fail != "" && strings.HasSuffix(user, s.fail):
		return "", errors.New("rate limited")
	case strings.HasSuffix(user, "GREET"):
		return "Good morning", nil
	case strings.HasSuffix(user, "BLOCK"):
		return "- item one\n- item two", nil
	case strings.HasSuffix(user, "SUM"):
		return "All quiet.", nil
	}
	return "", nil
}

type fakeFeeds struct {
	feeds     []model.FeedRef
	refreshed []int64
	err       error
}

func (f *fakeFeeds) ListFeeds() ([]model.FeedRef, error) { return f.feeds, nil }

func (f *fakeFeeds) RefreshFeed(id int64) error {
	f.refreshed = append(f.refreshed, id)
	return f.err
}

func newComposer(cache *memCache, out *memWriter, gen *scriptedGen, feeds *fakeFeeds) *Composer {
	cfg := &config.Config{AINews: config.AINewsConfig{Prompts: config.AINewsPrompts{
		Greeting: "GREET", Summary: "SUM", SummaryBlock: "BLOCK",
	}}}
	c := NewComposer(cfg, cache, out, gen, feeds)
	c.now = func() time.Time { return time.Date(2025, 5, 1, 7, 30, 0, 0, time.UTC) }
	return c
}

func TestCompose_AssemblesDigest(t *testing.T) {
	cache := &memCache{records: []model.SummaryRecord{{Content: "s1"}, {Content: "s2"}}}
	out := &memWriter{}
	gen := &scriptedGen{}
	feeds := &fakeFeeds{feeds: []model.FeedRef{{ID: 3, Title: "Other"}, {ID: 8, Title: "֎Newsᴬᴵ for you"}}}

	got, err := newComposer(cache, out, gen, feeds).Compose(context.Background())
	require.NoError(t, err)

	want := "Good morning\n\n### 🌐Summary\nAll quiet.\n\n### 📝News\n- item one\n- item two"
	assert.Equal(t, want, got)
	assert.Equal(t, []string{want}, out.written)
	assert.Equal(t, []int64{8}, feeds.refreshed)

	require.Len(t, gen.users, 3)
	assert.Equal(t, "May 01, 2025 at 07:30 AM\n---\nGREET", gen.users[0])
	assert.Equal(t, "s1\ns2\n---\nBLOCK", gen.users[1])
	assert.Equal(t, "- item one\n- item two\n---\nSUM", gen.users[2])
}

func TestCompose_EmptyCacheDoesNothing(t *testing.T) {
	out := &memWriter{}
	gen := &scriptedGen{}
	got, err := newComposer(&memCache{}, out, gen, &fakeFeeds{}).Compose(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, out.written)
	assert.Empty(t, gen.users)
}

func TestCompose_GenerationFailureDropsBatch(t *testing.T) {
	cache := &memCache{records: []model.SummaryRecord{{Content: "s1"}}}
	out := &memWriter{}
	c := newComposer(cache, out, &scriptedGen{fail: "BLOCK"}, &fakeFeeds{})

	_, err := c.Compose(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary_block")
	assert.Empty(t, out.written)
	assert.Empty(t, cache.records)
}

func TestCompose_RefreshErrorIsNotFatal(t *testing.T) {
	cache := &memCache{records: []model.SummaryRecord{{Content: "s1"}}}
	feeds := &fakeFeeds{
		feeds: []model.FeedRef{{ID: 8, Title: "֎Newsᴬᴵ for you"}},
		err:   errors.New("404"),
	}
	got, err := newComposer(cache, &memWriter{}, &scriptedGen{}, feeds).Compose(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Equal(t, []int64{8}, feeds.refreshed)
}

func TestCompose_MissingFeedSkipsRefresh(t *testing.T) {
	cache := &memCache{records: []model.SummaryRecord{{Content: "s1"}}}
	feeds := &fakeFeeds{feeds: []model.FeedRef{{ID: 1, Title: "Hacker News"}}}
	_, err := newComposer(cache, &memWriter{}, &scriptedGen{}, feeds).Compose(context.Background())
	require.NoError(t, err)
	assert.Empty(t, feeds.refreshed)
}
