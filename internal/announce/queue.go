// Package announce delivers spoken announcements one at a time, lowering
// ambient audio around each one.
package announce

import (
	"context"
	"sync"
	"time"

	"github.com/fentz26/tempo/internal/logger"
)

// restoreTimeout bounds the restore step so ambient audio comes back even
// when the queue is stopping.
const restoreTimeout = 5 * time.Second

// Speaker speaks a single announcement and returns once it has finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Ducker attenuates and restores ambient audio.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

// Queue is a FIFO of announcements served by a single worker, so deliveries
// never overlap. Each delivery is duck, speak, restore.
type Queue struct {
	speaker Speaker
	ducker  Ducker
	log     *logger.Logger

	mu      sync.Mutex
	pending []string
	wake    chan struct{}

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue. A nil ducker disables ducking.
func NewQueue(speaker Speaker, ducker Ducker, log *logger.Logger) *Queue {
	if ducker == nil {
		ducker = NoopDucker{}
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		speaker: speaker,
		ducker:  ducker,
		log:     log,
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins the delivery loop.
func (q *Queue) Start() {
	q.wg.Add(1)
	go q.loop()
}

// Stop cancels the in-flight announcement, drops pending ones and waits for
// the loop to exit.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// Enqueue appends text to the queue. Empty text is ignored.
func (q *Queue) Enqueue(text string) {
	if text == "" {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, text)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Flush drops every announcement not yet started and returns how many were
// dropped. The announcement being spoken finishes normally.
func (q *Queue) Flush() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	q.pending = nil
	return n
}

// Pending returns the number of announcements waiting to be spoken.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return "", false
	}
	text := q.pending[0]
	q.pending = q.pending[1:]
	return text, true
}

func (q *Queue) loop() {
	defer q.wg.Done()

	for {
		if q.ctx.Err() != nil {
			return
		}
		text, ok := q.next()
		if !ok {
			select {
			case <-q.ctx.Done():
				return
			case <-q.wake:
			}
			continue
		}
		q.deliver(text)
	}
}

func (q *Queue) deliver(text string) {
	if err := q.ducker.Duck(q.ctx); err != nil {
		q.log.Warn("duck failed", "error", err)
	}
	if err := q.speaker.Speak(q.ctx, text); err != nil {
		q.log.Warn("announcement failed", "text", text, "error", err)
	} else {
		q.log.Debug("announced", "text", text)
	}

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()
	if err := q.ducker.Restore(ctx); err != nil {
		q.log.Warn("restore failed", "error", err)
	}
}
