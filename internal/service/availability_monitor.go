package service

import (
	"academic_backend/internal/model"
	"academic_backend/pkg/logger"
	"academic_backend/pkg/monitoring"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ExamLister yields the exams the monitor should track.
type ExamLister interface {
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]model.Exam, error)
}

type StateBroadcaster interface {
	BroadcastExamState(ctx context.Context, evt ExamStateEvent)
}

// StateStore remembers the last classified state per exam. Swap stores the
// new state and returns the previous one ("" when unknown).
type StateStore interface {
	Swap(ctx context.Context, examID uint, state model.AvailabilityState) (model.AvailabilityState, error)
	Retain(ctx context.Context, examIDs map[uint]bool)
}

type memoryStateStore struct {
	mu     sync.Mutex
	states map[uint]model.AvailabilityState
}

func NewMemoryStateStore() StateStore {
	return &memoryStateStore{states: make(map[uint]model.AvailabilityState)}
}

func (m *memoryStateStore) Swap(_ context.Context, examID uint, state model.AvailabilityState) (model.AvailabilityState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.states[examID]
	m.states[examID] = state
	return prev, nil
}

func (m *memoryStateStore) Retain(_ context.Context, examIDs map[uint]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.states {
		if !examIDs[id] {
			delete(m.states, id)
		}
	}
}

// redisStateStore shares states across instances; GETSET makes exactly one
// instance observe each transition.
type redisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) StateStore {
	return &redisStateStore{client: client, ttl: ttl}
}

func (r *redisStateStore) Swap(ctx context.Context, examID uint, state model.AvailabilityState) (model.AvailabilityState, error) {
	key := fmt.Sprintf("exam:state:%d", examID)
	prev, err := r.client.GetSet(ctx, key, string(state)).Result()
	if err != nil && err != redis.Nil {
		return "", err
	}
	r.client.Expire(ctx, key, r.ttl)
	return model.AvailabilityState(prev), nil
}

// Retain is a no-op; keys expire on their own.
func (r *redisStateStore) Retain(context.Context, map[uint]bool) {}

// AvailabilityMonitor periodically classifies exams near their window and
// broadcasts every state transition it observes.
type AvailabilityMonitor struct {
	Exams    ExamLister
	Hub      StateBroadcaster
	Store    StateStore
	Lookback time.Duration
	Now      func() time.Time

	mu       sync.Mutex
	interval time.Duration
	started  bool
	reset    chan time.Duration
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewAvailabilityMonitor(exams ExamLister, hub StateBroadcaster, store StateStore, interval, lookback time.Duration) *AvailabilityMonitor {
	if store == nil {
		store = NewMemoryStateStore()
	}
	return &AvailabilityMonitor{
		Exams:    exams,
		Hub:      hub,
		Store:    store,
		Lookback: lookback,
		Now:      func() time.Time { return time.Now().UTC() },
		interval: interval,
		reset:    make(chan time.Duration, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Poll runs one classification pass and returns the transitions it broadcast.
func (m *AvailabilityMonitor) Poll(ctx context.Context) ([]ExamStateEvent, error) {
	now := m.Now()
	exams, err := m.Exams.ListStartingBetween(ctx, now.Add(-m.Lookback), now.Add(m.Lookback))
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	counts := map[model.AvailabilityState]int{
		model.ExamPending: 0,
		model.ExamActive:  0,
		model.ExamEnded:   0,
	}
	seen := make(map[uint]bool, len(exams))
	var transitions []ExamStateEvent
	for i := range exams {
		exam := &exams[i]
		state := Classify(exam, now)
		counts[state]++
		seen[exam.ID] = true

		prev, err := m.Store.Swap(ctx, exam.ID, state)
		if err != nil {
			logger.Log.Warn("Exam state swap failed", zap.Uint("examId", exam.ID), zap.Error(err))
			continue
		}
		if prev == "" || prev == state {
			continue
		}
		evt := ExamStateEvent{
			ExamID:    exam.ID,
			ClassID:   exam.ClassID,
			State:     state,
			StartTime: exam.StartTime,
			EndTime:   exam.EndTime(),
		}
		m.Hub.BroadcastExamState(ctx, evt)
		transitions = append(transitions, evt)
		logger.Log.Info("Exam state changed",
			zap.Uint("examId", exam.ID),
			zap.String("from", string(prev)),
			zap.String("to", string(state)))
	}
	m.Store.Retain(ctx, seen)

	for state, n := range counts {
		monitoring.ExamsByState.WithLabelValues(string(state)).Set(float64(n))
	}
	return transitions, nil
}

func (m *AvailabilityMonitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// SetInterval changes the polling period of a running monitor.
func (m *AvailabilityMonitor) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	changed := d != m.interval
	m.interval = d
	m.mu.Unlock()
	if !changed {
		return
	}
	select {
	case m.reset <- d:
	default:
		select {
		case <-m.reset:
		default:
		}
		m.reset <- d
	}
	logger.Log.Info("Availability monitor interval updated", zap.Duration("interval", d))
}

func (m *AvailabilityMonitor) Run() {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	defer close(m.done)
	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case d := <-m.reset:
			ticker.Reset(d)
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.Interval())
			if _, err := m.Poll(ctx); err != nil {
				logger.Log.Error("Availability poll failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// Stop ends Run and waits for the current poll to finish.
func (m *AvailabilityMonitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		close(m.quit)
		if started {
			<-m.done
		}
	})
}
