package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/miniflux_ai/internal/config"
)

// fakeChatModel 模拟聊天模型
type fakeChatModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	delay    time.Duration
	received [][]*schema.Message
	finished []time.Time
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, input)
	f.finished = append(f.finished, time.Now())
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func testConfig(rpm int, timeoutSec int) *config.Config {
	return &config.Config{LLM: config.LLMConfig{RPM: rpm, Timeout: timeoutSec}}
}

func TestGateway_GenerateSendsSystemAndUser(t *testing.T) {
	cm := &fakeChatModel{reply: "translated"}
	cfg := testConfig(10, 5)
	g := NewGateway(cfg, cm, NewRateWindowFromConfig(cfg))

	out, err := g.Generate(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "translated", out)

	require.Len(t, cm.received, 1)
	msgs := cm.received[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "sys", msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "usr", msgs[1].Content)
}

func TestGateway_ErrorIsPropagatedAsGenerationError(t *testing.T) {
	cause := errors.New("503 upstream")
	cm := &fakeChatModel{err: cause}
	cfg := testConfig(10, 5)
	g := NewGateway(cfg, cm, NewRateWindowFromConfig(cfg))

	_, err := g.Generate(context.Background(), "s", "u")
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, cause)
	// 失败不重试
	assert.Len(t, cm.received, 1)
}

func TestGateway_Timeout(t *testing.T) {
	cm := &fakeChatModel{reply: "late", delay: 2 * time.Second}
	cfg := testConfig(10, 1)
	g := NewGateway(cfg, cm, NewRateWindowFromConfig(cfg))
	g.timeout = 20 * time.Millisecond

	_, err := g.Generate(context.Background(), "s", "u")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGateway_BlocksInsteadOfRejecting(t *testing.T) {
	cm := &fakeChatModel{reply: "ok"}
	cfg := testConfig(1, 5)
	window := NewRateWindow(1, 150*time.Millisecond)
	g := NewGateway(cfg, cm, window)

	start := time.Now()
	_, err := g.Generate(context.Background(), "s", "u")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "s", "u")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func TestGateway_WithQPSLimiter(t *testing.T) {
	cm := &fakeChatModel{reply: "ok"}
	cfg := testConfig(100, 5)
	cfg.LLM.QPS = 50
	g := NewGateway(cfg, cm, NewRateWindowFromConfig(cfg))
	require.NotNil(t, g.limiter)

	for i := 0; i < 3; i++ {
		_, err := g.Generate(context.Background(), "s", "u")
		require.NoError(t, err)
	}
}

func TestGateway_NeverExceedsLimitPerWindow(t *testing.T) {
	const (
		limit   = 3
		period  = 200 * time.Millisecond
		callers = 10
	)
	cm := &fakeChatModel{reply: "ok", delay: 10 * time.Millisecond}
	g := NewGateway(testConfig(limit, 5), cm, NewRateWindow(limit, period))

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Generate(context.Background(), "s", "u")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	finished := append([]time.Time(nil), cm.finished...)
	require.Len(t, finished, callers)
	sort.Slice(finished, func(i, j int) bool { return finished[i].Before(finished[j]) })

	// 任意滑动窗口内完成的调用数不超过 limit
	for i := range finished {
		count := 0
		for j := i; j < len(finished) && finished[j].Sub(finished[i]) < period; j++ {
			count++
		}
		assert.LessOrEqual(t, count, limit, "window starting at call %d", i)
	}
}
