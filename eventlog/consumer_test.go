package eventlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// fakeSource hands out its batches, then fails with err or blocks until cancelled.
type fakeSource struct {
	mu      sync.Mutex
	batches [][]winapi.Handle
	err     error
	closed  bool
}

func (s *fakeSource) Next(ctx context.Context, handles []winapi.Handle) (int, error) {
	s.mu.Lock()
	if len(s.batches) > 0 {
		n := copy(handles, s.batches[0])
		s.batches = s.batches[1:]
		s.mu.Unlock()
		return n, nil
	}
	err := s.err
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// closedEvents lists the closed handles that the fake did not allocate itself.
func (f *fakeAPI) closedEvents() []winapi.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []winapi.Handle
	for _, h := range f.closed {
		if h < 0x1000 {
			events = append(events, h)
		}
	}
	return events
}

func systemOnlyConfig(workers int, buffer int) ConsumerConfig {
	return ConsumerConfig{
		BatchSize:  2,
		Workers:    workers,
		BufferSize: buffer,
		Render:     RenderOptions{System: true},
	}
}

func receive(t *testing.T, records <-chan *Record, n int) []*Record {
	t.Helper()
	var out []*Record
	for len(out) < n {
		select {
		case record := <-records:
			out = append(out, record)
		case <-time.After(5 * time.Second):
			t.Fatalf("received %d records, want %d", len(out), n)
		}
	}
	return out
}

func TestConsumer(t *testing.T) {
	api := newFakeAPI()
	api.render = eventRender(nullSlot())
	source := &fakeSource{batches: [][]winapi.Handle{{1, 2}, {3}}}
	bookmark, err := NewBookmark(api, "")
	require.NoError(t, err)

	metrics := NewMetrics(prometheus.NewRegistry())
	consumer := NewConsumer(api, source, bookmark, systemOnlyConfig(1, 16), metrics)
	consumer.Start(context.Background())

	records := receive(t, consumer.Records, 3)
	for _, record := range records {
		assert.Equal(t, uint16(4624), record.EventID())
	}

	require.NoError(t, consumer.Stop())
	require.NoError(t, consumer.Stop())
	require.NoError(t, bookmark.Close())

	assert.True(t, source.closed)
	assert.ElementsMatch(t, []winapi.Handle{1, 2, 3}, api.closedEvents(), "every event handle is closed")
	assert.Equal(t, []winapi.Handle{1, 2, 3}, api.bookmarkUpdates, "a single worker keeps delivery order")
	assert.Equal(t, uint64(0), consumer.Sender.Dropped())
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.recordsTotal.WithLabelValues(statusRendered)))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.bookmarkUpdates.WithLabelValues("success")))
	assert.Equal(t, 0, api.open())

	_, ok := <-consumer.Records
	assert.False(t, ok, "records channel is closed on stop")
}

func TestConsumerWorkers(t *testing.T) {
	api := newFakeAPI()
	api.render = eventRender(nullSlot())
	var batches [][]winapi.Handle
	for h := winapi.Handle(1); h <= 20; h += 2 {
		batches = append(batches, []winapi.Handle{h, h + 1})
	}
	source := &fakeSource{batches: batches}

	consumer := NewConsumer(api, source, nil, systemOnlyConfig(4, 32), nil)
	consumer.Start(context.Background())

	receive(t, consumer.Records, 20)
	require.NoError(t, consumer.Stop())
	assert.Len(t, api.closedEvents(), 20)
}

func TestConsumerCountsFailures(t *testing.T) {
	api := newFakeAPI()
	api.render = func(renderRequest, []byte) (uint32, uint32, error) {
		return 0, 0, winapi.ERROR_EVT_INVALID_EVENT_DATA
	}
	source := &fakeSource{batches: [][]winapi.Handle{{1}}}
	metrics := NewMetrics(nil)

	consumer := NewConsumer(api, source, nil, systemOnlyConfig(1, 4), metrics)
	consumer.Start(context.Background())

	records := receive(t, consumer.Records, 1)
	assert.Nil(t, records[0].System)
	require.NoError(t, consumer.Stop())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.recordsTotal.WithLabelValues(statusFailed)))
}

func TestConsumerDropsWhenFull(t *testing.T) {
	api := newFakeAPI()
	api.render = eventRender(nullSlot())
	source := &fakeSource{batches: [][]winapi.Handle{{1, 2}, {3}}}
	metrics := NewMetrics(nil)

	consumer := NewConsumer(api, source, nil, systemOnlyConfig(1, 1), metrics)
	consumer.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(api.closedEvents()) == 3
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, consumer.Stop())
	assert.Equal(t, uint64(2), consumer.Sender.Dropped())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.recordsTotal.WithLabelValues(statusDropped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.recordsTotal.WithLabelValues(statusRendered)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.recordsTotal.WithLabelValues(statusFailed)))
	assert.Len(t, consumer.Records, 1)
}

func TestConsumerSourceFailure(t *testing.T) {
	api := newFakeAPI()
	api.render = eventRender(nullSlot())
	lost := errors.New("subscription lost")
	source := &fakeSource{batches: [][]winapi.Handle{{1}}, err: lost}

	consumer := NewConsumer(api, source, nil, systemOnlyConfig(1, 4), nil)
	consumer.Start(context.Background())

	assert.ErrorIs(t, consumer.Wait(), lost)
	err := consumer.Stop()
	assert.ErrorIs(t, err, lost)
	assert.True(t, source.closed)
	assert.Len(t, consumer.Records, 1)
}

func TestConsumerStopsWithContext(t *testing.T) {
	api := newFakeAPI()
	source := &fakeSource{}
	ctx, cancel := context.WithCancel(context.Background())

	consumer := NewConsumer(api, source, nil, ConsumerConfig{}, nil)
	consumer.Start(ctx)
	cancel()

	assert.NoError(t, consumer.Wait())
	assert.NoError(t, consumer.Stop())
}

func TestRecordSenderForward(t *testing.T) {
	var sender RecordSender
	channel := make(chan *Record, 1)

	assert.True(t, sender.Forward(channel, &Record{}))
	assert.False(t, sender.Forward(channel, &Record{}))
	assert.Equal(t, uint64(1), sender.Dropped())
	assert.Len(t, channel, 1)
}
