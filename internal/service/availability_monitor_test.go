package service

import (
	"academic_backend/internal/model"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	exams []model.Exam
	err   error
}

func (l *staticLister) ListStartingBetween(_ context.Context, from, to time.Time) ([]model.Exam, error) {
	if l.err != nil {
		return nil, l.err
	}
	var out []model.Exam
	for _, e := range l.exams {
		if !e.StartTime.Before(from) && !e.StartTime.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []ExamStateEvent
}

func (b *recordingBroadcaster) BroadcastExamState(_ context.Context, evt ExamStateEvent) {
	b.mu.Lock()
	b.events = append(b.events, evt)
	b.mu.Unlock()
}

func monitorExam(id, classID uint, start time.Time, minutes int) model.Exam {
	e := model.Exam{ClassID: classID, StartTime: start, Duration: minutes}
	e.ID = id
	return e
}

func TestMonitorBroadcastsTransitionsOnly(t *testing.T) {
	now := time.Date(2026, 5, 4, 8, 55, 0, 0, time.UTC)
	start := now.Add(5 * time.Minute)
	lister := &staticLister{exams: []model.Exam{monitorExam(1, 7, start, 30)}}
	hub := &recordingBroadcaster{}
	m := NewAvailabilityMonitor(lister, hub, nil, time.Second, 24*time.Hour)
	m.Now = func() time.Time { return now }
	ctx := context.Background()

	// first sighting only records the state
	events, err := m.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = m.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	now = start
	events, err = m.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ExamStateEvent{ExamID: 1, ClassID: 7, State: model.ExamActive, StartTime: start, EndTime: start.Add(30 * time.Minute)}, events[0])

	now = start.Add(30 * time.Minute)
	events, err = m.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.ExamEnded, events[0].State)

	assert.Len(t, hub.events, 2)
}

func TestMonitorSharedStoreDedupesInstances(t *testing.T) {
	now := time.Date(2026, 5, 4, 8, 59, 0, 0, time.UTC)
	lister := &staticLister{exams: []model.Exam{monitorExam(1, 7, now.Add(time.Minute), 10)}}
	store := NewMemoryStateStore()
	hubA, hubB := &recordingBroadcaster{}, &recordingBroadcaster{}
	a := NewAvailabilityMonitor(lister, hubA, store, time.Second, time.Hour)
	b := NewAvailabilityMonitor(lister, hubB, store, time.Second, time.Hour)
	clock := func() time.Time { return now }
	a.Now, b.Now = clock, clock
	ctx := context.Background()

	_, err := a.Poll(ctx)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = a.Poll(ctx)
	require.NoError(t, err)
	_, err = b.Poll(ctx)
	require.NoError(t, err)

	assert.Len(t, hubA.events, 1)
	assert.Empty(t, hubB.events)
}

func TestMonitorForgetsExamsOutsideLookback(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	lister := &staticLister{exams: []model.Exam{monitorExam(1, 7, now.Add(-30*time.Minute), 60)}}
	store := NewMemoryStateStore()
	m := NewAvailabilityMonitor(lister, &recordingBroadcaster{}, store, time.Second, time.Hour)
	m.Now = func() time.Time { return now }
	ctx := context.Background()

	_, err := m.Poll(ctx)
	require.NoError(t, err)
	now = now.Add(3 * time.Hour)
	_, err = m.Poll(ctx)
	require.NoError(t, err)

	prev, err := store.Swap(ctx, 1, model.ExamEnded)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityState(""), prev)
}

func TestMonitorPollError(t *testing.T) {
	m := NewAvailabilityMonitor(&staticLister{err: errors.New("boom")}, &recordingBroadcaster{}, nil, time.Second, time.Hour)
	_, err := m.Poll(context.Background())
	assert.Error(t, err)
}

func TestMonitorRunAndStop(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	lister := &staticLister{}
	m := NewAvailabilityMonitor(lister, &recordingBroadcaster{}, nil, time.Hour, time.Hour)
	m.Now = func() time.Time { return now }

	go m.Run()
	m.SetInterval(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, m.Interval())
	m.SetInterval(0)
	assert.Equal(t, 10*time.Millisecond, m.Interval())
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestMonitorStopWithoutRun(t *testing.T) {
	m := NewAvailabilityMonitor(&staticLister{}, &recordingBroadcaster{}, nil, time.Second, time.Hour)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Run")
	}
}
