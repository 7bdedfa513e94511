package llm

import (
	"context"
	"sync"
	"time"
)

// RateWindow 进程内共享的滑动窗口，限制任意 period 内完成的调用数不超过 limit。
// 调用进行中占用一个名额，结束时记录完成时间，该时间滑出窗口后名额才释放。
type RateWindow struct {
	mu       sync.Mutex
	limit    int
	period   time.Duration
	inFlight int
	done     []time.Time // 窗口内的完成时间，升序
	wake     chan struct{}
	now      func() time.Time
}

// NewRateWindow 创建滑动窗口，limit 最小为 1
func NewRateWindow(limit int, period time.Duration) *RateWindow {
	if limit < 1 {
		limit = 1
	}
	return &RateWindow{
		limit:  limit,
		period: period,
		wake:   make(chan struct{}),
		now:    time.Now,
	}
}

// Acquire 阻塞直到窗口有空位或 ctx 结束。
// 返回的 release 必须在调用结束后执行，重复调用无副作用。
func (w *RateWindow) Acquire(ctx context.Context) (release func(), err error) {
	for {
		w.mu.Lock()
		now := w.now()
		w.prune(now)
		if w.inFlight+len(w.done) < w.limit {
			w.inFlight++
			w.mu.Unlock()
			var once sync.Once
			return func() { once.Do(w.release) }, nil
		}

		var timer *time.Timer
		var expire <-chan time.Time
		if len(w.done) > 0 {
			timer = time.NewTimer(w.done[0].Add(w.period).Sub(now))
			expire = timer.C
		}
		wake := w.wake
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, ctx.Err()
		case <-expire:
		case <-wake:
			if timer != nil {
				timer.Stop()
			}
		}
	}
}

func (w *RateWindow) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight--
	w.done = append(w.done, w.now())
	close(w.wake)
	w.wake = make(chan struct{})
}

func (w *RateWindow) prune(now time.Time) {
	i := 0
	for i < len(w.done) && now.Sub(w.done[i]) >= w.period {
		i++
	}
	if i > 0 {
		w.done = append(w.done[:0], w.done[i:]...)
	}
}

// Usage 返回当前占用的名额数（进行中 + 窗口内已完成）
func (w *RateWindow) Usage() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return w.inFlight + len(w.done)
}
