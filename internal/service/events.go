package service

import (
	"academic_backend/pkg/logger"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AnswerKeyChanged is published after a question edit that can change
// already computed scores.
type AnswerKeyChanged struct {
	QuestionID           uint
	ExamID               uint
	CorrectOptionChanged bool
	WeightChanged        bool
	ChangedBy            uint
	At                   time.Time
}

type AnswerKeyHandler func(ctx context.Context, evt AnswerKeyChanged)

// AnswerKeyPublisher is what the question bank needs from the bus.
type AnswerKeyPublisher interface {
	Publish(evt AnswerKeyChanged)
}

// EventBus delivers AnswerKeyChanged events to its handlers on a background
// worker. Publish never blocks the editor: when the buffer is full the event
// is handled on its own goroutine instead.
type EventBus struct {
	events   chan AnswerKeyChanged
	handlers []AnswerKeyHandler

	mu       sync.RWMutex
	closed   bool
	started  bool
	overflow sync.WaitGroup
	done     chan struct{}
}

func NewEventBus(buffer int) *EventBus {
	if buffer <= 0 {
		buffer = 1
	}
	return &EventBus{
		events: make(chan AnswerKeyChanged, buffer),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a handler. Call it before Start.
func (b *EventBus) Subscribe(h AnswerKeyHandler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

func (b *EventBus) Publish(evt AnswerKeyChanged) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		logger.Log.Warn("Event bus stopped, dropping answer key event", zap.Uint("questionId", evt.QuestionID))
		return
	}

	select {
	case b.events <- evt:
	default:
		logger.Log.Warn("Event bus buffer full, handling answer key event inline",
			zap.Uint("questionId", evt.QuestionID),
			zap.Int("buffer", cap(b.events)))
		b.overflow.Add(1)
		go func() {
			defer b.overflow.Done()
			b.dispatch(evt)
		}()
	}
}

func (b *EventBus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true
	go b.run()
}

func (b *EventBus) run() {
	defer close(b.done)
	for evt := range b.events {
		b.dispatch(evt)
	}
}

func (b *EventBus) dispatch(evt AnswerKeyChanged) {
	ctx := context.Background()
	for _, h := range b.handlers {
		h(ctx, evt)
	}
}

// Stop refuses new events and waits until everything already queued has been handled.
func (b *EventBus) Stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	started := b.started
	close(b.events)
	b.mu.Unlock()

	if started {
		<-b.done
	} else {
		for evt := range b.events {
			b.dispatch(evt)
		}
	}
	b.overflow.Wait()
	logger.Log.Info("Event bus stopped")
}
