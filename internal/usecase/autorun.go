package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"phptdd/internal/domain"
	"phptdd/internal/port"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// RunItem is a queued auto-run request.
type RunItem struct {
	URI  string
	Info domain.TestFunctionInfo
}

// Scheduler batches auto-run requests so that bursts of edits run each test
// function at most once per interval.
type Scheduler struct {
	runner   port.TestRunner
	sink     port.FailureSink
	clock    Clock
	interval time.Duration

	mu      sync.Mutex
	lastRun time.Time
	queue   []RunItem
}

// NewScheduler creates a scheduler. A nil clock uses the wall clock.
func NewScheduler(runner port.TestRunner, sink port.FailureSink, interval time.Duration, clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	return &Scheduler{runner: runner, sink: sink, clock: clock, interval: interval}
}

// Enqueue queues the bindings that name a test function and allow
// auto-run. It returns how many were queued.
func (s *Scheduler) Enqueue(uri string, infos ...domain.TestFunctionInfo) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, info := range infos {
		if !info.HasTestFunction() || info.DisableAutoRun {
			continue
		}
		s.queue = append(s.queue, RunItem{URI: uri, Info: info})
		added++
	}
	return added
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Flush runs the queue once the interval since the previous run has
// elapsed, running each distinct function name once. It reports whether
// items are still waiting; the caller polls again later in that case.
func (s *Scheduler) Flush(ctx context.Context) (bool, error) {
	s.mu.Lock()
	now := s.clock.Now()
	if now.Sub(s.lastRun) <= s.interval {
		pending := len(s.queue) > 0
		s.mu.Unlock()
		return pending, nil
	}
	items := s.queue
	s.queue = nil
	s.lastRun = now
	s.mu.Unlock()

	ran := make(map[string]bool, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		name := item.Info.FunctionName
		if ran[name] {
			continue
		}
		ran[name] = true

		log.Infof("auto-running %s", name)
		if err := s.runner.Run(ctx, item.Info, false); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			if s.sink != nil {
				s.sink.Failed(item.URI, item.Info, err)
			}
			continue
		}
		if s.sink != nil {
			s.sink.Passed(item.URI, item.Info)
		}
	}
	return s.Pending() > 0, nil
}

// ChangedLines lists, in ascending order, the lines whose token text differs
// between two versions of a stream. Every line of next counts as changed
// when there is no previous version.
func ChangedLines(prev, next []domain.Token) []int {
	before := lineTexts(prev)
	after := lineTexts(next)

	var lines []int
	for line, text := range after {
		if prev == nil || before[line] != text {
			lines = append(lines, line)
		}
	}
	for line := range before {
		if _, ok := after[line]; !ok {
			lines = append(lines, line)
		}
	}
	sort.Ints(lines)
	return lines
}

// lineTexts concatenates the token text starting on each line. Structural
// tokens belong to the line of the preceding content token.
func lineTexts(tokens []domain.Token) map[int]string {
	texts := make(map[int]string)
	line := 0
	for _, tok := range tokens {
		if tok.IsContent() {
			line = tok.Line
		}
		texts[line] += tok.String()
	}
	return texts
}
