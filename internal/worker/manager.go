package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"streamify/internal/logging"
	"streamify/internal/queue"
)

const (
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages read per XREADGROUP
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long a read blocks waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// EventHandler applies one event. *Handler is the production implementation.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.FeedEvent) error
}

// Manager runs worker goroutines that consume the feed stream.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start ensures the consumer group and launches the workers. Call Stop to shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamFeed, queue.ConsumerGroupFeed); err != nil {
		m.cancel()
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, consumerNameForWorker(i))
	}

	logging.Component(m.ctx, "worker_manager").Info("workers started",
		"count", m.workerCount, "stream", queue.StreamFeed, "group", queue.ConsumerGroupFeed)
	return nil
}

// Stop cancels the workers and blocks until all have returned.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	logging.Component(context.Background(), "worker_manager").Info("workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	ctx := logging.WithLogger(m.ctx, logging.FromContext(m.ctx).With("worker", workerID))

	// Recover anything this consumer had in flight before a crash.
	m.processPending(ctx, consumerName)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			m.processMessages(ctx, consumerName)
		}
	}
}

func (m *Manager) processPending(ctx context.Context, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(ctx, queue.StreamFeed, queue.ConsumerGroupFeed, consumerName, m.batchSize)
		if err != nil {
			logging.Component(ctx, "worker").Error("read pending failed", "error", err)
			return
		}
		if len(messages) == 0 {
			return
		}
		m.handleMessages(ctx, messages)
	}
}

func (m *Manager) processMessages(ctx context.Context, consumerName string) {
	messages, err := m.consumer.Read(ctx, queue.StreamFeed, queue.ConsumerGroupFeed, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Component(ctx, "worker").Error("read failed", "error", err)
		// Back off on error
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	m.handleMessages(ctx, messages)
}

// handleMessages applies and acks each message. Failed events are still acked;
// the feed cache is rebuilt from Postgres on the next warm.
func (m *Manager) handleMessages(ctx context.Context, messages []queue.Message) {
	log := logging.Component(ctx, "worker")
	for _, msg := range messages {
		if err := m.handler.HandleEvent(ctx, msg.Event); err != nil {
			log.Warn("handler error", "message_id", msg.ID, "type", msg.Event.Type, "error", err)
		}
		if err := m.consumer.Ack(ctx, queue.StreamFeed, queue.ConsumerGroupFeed, msg.ID); err != nil {
			log.Error("ack failed", "message_id", msg.ID, "error", err)
		}
	}
}

func consumerNameForWorker(workerID int) string {
	return fmt.Sprintf("worker-%d", workerID)
}
