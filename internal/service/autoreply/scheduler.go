// Package autoreply posts delayed synthetic admin replies into conversations.
package autoreply

import (
	"SourceHub/internal/lib/metrics"
	"SourceHub/internal/lib/sl"
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

type Kind int

const (
	// Greeting follows the first message of a new conversation.
	Greeting Kind = iota
	// FollowUp follows any later visitor message.
	FollowUp
)

const deliverTimeout = 10 * time.Second

// Deliverer appends the chosen reply to the conversation.
type Deliverer interface {
	DeliverAutoReply(ctx context.Context, conversationID, content string) error
}

type Options struct {
	Enabled       bool
	GreetingDelay time.Duration
	FollowUpDelay time.Duration
	// Coalesce keeps only the latest pending reply per conversation.
	Coalesce  bool
	Greetings []string
	FollowUps []string
}

type task struct {
	timer *time.Timer
}

// Scheduler runs one-shot reply timers grouped by conversation so they can be
// cancelled when the conversation closes or the process stops.
type Scheduler struct {
	opts      Options
	deliverer Deliverer
	pick      func(n int) int
	pending   map[string]map[*task]struct{}
	stopped   bool
	ctx       context.Context
	cancel    context.CancelFunc
	inflight  sync.WaitGroup
	mu        sync.Mutex
	log       *slog.Logger
}

func NewScheduler(logger *slog.Logger, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		opts:    opts,
		pick:    rand.IntN,
		pending: make(map[string]map[*task]struct{}),
		ctx:     ctx,
		cancel:  cancel,
		log:     logger.With(sl.Module("auto-reply")),
	}
}

func (s *Scheduler) SetDeliverer(deliverer Deliverer) {
	s.deliverer = deliverer
}

func (s *Scheduler) pool(kind Kind) ([]string, time.Duration) {
	if kind == Greeting {
		return s.opts.Greetings, s.opts.GreetingDelay
	}
	return s.opts.FollowUps, s.opts.FollowUpDelay
}

// Schedule arranges a reply of the given kind; it never blocks on delivery.
func (s *Scheduler) Schedule(conversationID string, kind Kind) {
	replies, delay := s.pool(kind)
	if !s.opts.Enabled || len(replies) == 0 || s.deliverer == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	tasks, ok := s.pending[conversationID]
	if !ok {
		tasks = make(map[*task]struct{})
		s.pending[conversationID] = tasks
	}
	if s.opts.Coalesce {
		for t := range tasks {
			if t.timer.Stop() {
				metrics.RecordAutoReply("coalesced")
			}
			delete(tasks, t)
		}
	}

	t := &task{}
	tasks[t] = struct{}{}
	t.timer = time.AfterFunc(delay, func() {
		s.fire(conversationID, t, replies)
	})
}

func (s *Scheduler) fire(conversationID string, t *task, replies []string) {
	s.mu.Lock()
	tasks, ok := s.pending[conversationID]
	if _, live := tasks[t]; !ok || !live || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(tasks, t)
	if len(tasks) == 0 {
		delete(s.pending, conversationID)
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	content := replies[s.pick(len(replies))]
	ctx, cancel := context.WithTimeout(s.ctx, deliverTimeout)
	defer cancel()

	if err := s.deliverer.DeliverAutoReply(ctx, conversationID, content); err != nil {
		metrics.RecordAutoReply("failed")
		s.log.With(
			slog.String("conversation", conversationID),
			sl.Err(err),
		).Warn("auto reply")
		return
	}
	metrics.RecordAutoReply("sent")
}

// Cancel stops the conversation's pending replies and returns how many were dropped.
func (s *Scheduler) Cancel(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := 0
	for t := range s.pending[conversationID] {
		if t.timer.Stop() {
			cancelled++
			metrics.RecordAutoReply("cancelled")
		}
	}
	delete(s.pending, conversationID)
	return cancelled
}

// Pending reports the number of replies waiting for the conversation.
func (s *Scheduler) Pending(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending[conversationID])
}

// Stop cancels every pending reply and waits for running deliveries.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, tasks := range s.pending {
		for t := range tasks {
			t.timer.Stop()
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.inflight.Wait()
}
