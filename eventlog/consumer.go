package eventlog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

type RecordSender struct {
	dropped atomic.Uint64
	metrics *Metrics
}

// Forward never blocks; records are dropped while the channel is full.
// It reports whether record was sent.
func (s *RecordSender) Forward(channel chan<- *Record, record *Record) bool {
	select {
	case channel <- record:
		return true
	default:
		s.dropped.Add(1)
		if s.metrics != nil {
			s.metrics.recordDropped()
		}
		return false
	}
}

func (s *RecordSender) Dropped() uint64 {
	return s.dropped.Load()
}

type ConsumerConfig struct {
	// handles requested from the source at once
	BatchSize  int
	Workers    int
	BufferSize int
	Render     RenderOptions
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		BatchSize:  64,
		Workers:    4,
		BufferSize: 4096,
		Render:     DefaultRenderOptions(),
	}
}

// Consumer renders the handles of a Source into Records on a pool of workers.
// With a single worker, records and bookmark updates follow delivery order.
type Consumer struct {
	api      API
	source   Source
	bookmark *Bookmark
	config   ConsumerConfig
	metrics  *Metrics

	Records chan *Record
	Sender  RecordSender

	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	mu        sync.Mutex
	lastError error
	closed    bool
}

// NewConsumer takes ownership of source; bookmark may be nil.
func NewConsumer(api API, source Source, bookmark *Bookmark, config ConsumerConfig, metrics *Metrics) *Consumer {
	defaults := DefaultConsumerConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Consumer{
		api:      api,
		source:   source,
		bookmark: bookmark,
		config:   config,
		metrics:  metrics,
		Records:  make(chan *Record, config.BufferSize),
		Sender:   RecordSender{metrics: metrics},
	}
}

func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	c.waitGroup.Add(1)
	go func() {
		defer c.waitGroup.Done()
		if err := c.run(ctx); err != nil {
			c.setError(err)
		}
	}()
}

func (c *Consumer) run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	handles := make(chan winapi.Handle, c.config.BatchSize)

	group.Go(func() error {
		defer close(handles)
		return c.pull(ctx, handles)
	})
	for i := 0; i < c.config.Workers; i++ {
		group.Go(func() error {
			for handle := range handles {
				c.process(handle)
			}
			return nil
		})
	}

	return group.Wait()
}

func (c *Consumer) pull(ctx context.Context, handles chan<- winapi.Handle) error {
	batch := make([]winapi.Handle, c.config.BatchSize)
	for {
		n, err := c.source.Next(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for i, handle := range batch[:n] {
			select {
			case handles <- handle:
			case <-ctx.Done():
				c.closeHandles(batch[i:n])
				return nil
			}
		}
	}
}

func (c *Consumer) process(handle winapi.Handle) {
	defer c.closeHandles([]winapi.Handle{handle})

	start := time.Now()
	record, err := RenderRecord(c.api, handle, c.config.Render)
	if err != nil {
		Logger().Warn("failed to render event", zap.Uint16("event_id", record.EventID()),
			zap.String("provider", record.Provider()), zap.Error(err))
	} else {
		c.metrics.renderObserved(start)
	}

	// each record gets exactly one status
	if c.Sender.Forward(c.Records, record) {
		if err != nil {
			c.metrics.recordFailed()
		} else {
			c.metrics.recordRendered()
		}
	}

	if c.bookmark != nil {
		err = c.bookmark.Update(handle)
		c.metrics.bookmarkUpdated(err)
		if err != nil {
			Logger().Warn("failed to update bookmark", zap.Error(err))
		}
	}
}

func (c *Consumer) closeHandles(handles []winapi.Handle) {
	for _, handle := range handles {
		if err := c.api.Close(handle); err != nil {
			Logger().Debug("failed to close event handle", zap.Error(err))
		}
	}
}

func (c *Consumer) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = err
}

func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Wait blocks until the source fails or the consumer is stopped.
func (c *Consumer) Wait() error {
	c.waitGroup.Wait()
	return c.Err()
}

func (c *Consumer) Stop() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.waitGroup.Wait()
	close(c.Records)

	return errors.Join(c.Err(), c.source.Close())
}
