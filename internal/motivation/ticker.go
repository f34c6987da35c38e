package motivation

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is how often the ticker refreshes motivation.
const DefaultInterval = 60 * time.Second

// Source produces one motivation result.
type Source interface {
	Generate(ctx context.Context, name, goal string) Result
}

// Ticker fetches motivation immediately and then on every interval until stopped.
// Each fetch runs in its own goroutine and hands its result to sink when it resolves.
type Ticker struct {
	src      Source
	name     string
	goal     string
	interval time.Duration
	sink     func(Result)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	stopped bool
	fetches sync.WaitGroup
}

func NewTicker(src Source, name, goal string, interval time.Duration, sink func(Result)) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{src: src, name: name, goal: goal, interval: interval, sink: sink}
}

// Start begins the schedule. Calling it more than once has no effect.
func (t *Ticker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.stopped {
		return
	}
	t.started = true
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	go t.loop(ctx)
}

func (t *Ticker) loop(ctx context.Context) {
	defer close(t.done)
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	t.fire(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.fire(ctx)
		}
	}
}

func (t *Ticker) fire(ctx context.Context) {
	t.fetches.Add(1)
	go func() {
		defer t.fetches.Done()
		res := t.src.Generate(ctx, t.name, t.goal)
		if ctx.Err() != nil {
			return
		}
		if t.sink != nil {
			t.sink(res)
		}
	}()
}

// Stop cancels the schedule and waits for the loop to exit. It is safe to call repeatedly.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	cancel, done := t.cancel, t.done
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until every fetch started so far has resolved.
func (t *Ticker) Wait() {
	t.fetches.Wait()
}

// Latest holds the most recently resolved motivation. The last write wins.
type Latest struct {
	mu    sync.RWMutex
	value Result
	seq   uint64
}

func (l *Latest) Set(r Result) {
	l.mu.Lock()
	l.value = r
	l.seq++
	l.mu.Unlock()
}

// Get returns the current value and how many writes have landed.
func (l *Latest) Get() (Result, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.seq
}
