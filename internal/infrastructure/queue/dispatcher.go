package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
	"github.com/clinicore/user-service/internal/pkg/metrics"
)

const (
	defaultWorkers  = 4
	channelBuffer   = 256
	deliveryTimeout = 30 * time.Second
)

var (
	// ErrQueueFull is returned by Notify when the target worker has no room left.
	ErrQueueFull = errors.New("notification queue full")
	// ErrDispatcherClosed is returned by Notify once Shutdown has begun.
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the user id, so one user's notifications are delivered in order.
// It implements ports.Notifier; delivery happens in the background through
// the wrapped transport.
type Dispatcher struct {
	workers   []chan domain.Notification
	transport ports.Notifier
	log       zerolog.Logger
	wg        sync.WaitGroup

	// mu guards closed and the channel close in Shutdown against concurrent sends.
	mu     sync.RWMutex
	closed bool

	// abort cancels in-flight deliveries when Shutdown runs out of time.
	base  context.Context
	abort context.CancelFunc
}

var _ ports.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// holding up to buffer pending notifications. Non-positive values fall back
// to the defaults.
func NewDispatcher(numWorkers, buffer int, transport ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = channelBuffer
	}
	base, abort := context.WithCancel(context.Background())
	d := &Dispatcher{
		workers:   make([]chan domain.Notification, numWorkers),
		transport: transport,
		log:       log,
		base:      base,
		abort:     abort,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, buffer)
	}
	return d
}

// Start launches all worker goroutines. They run until Shutdown.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Shutdown stops accepting notifications and waits for the workers to
// deliver everything already queued. If ctx ends first the remaining
// deliveries are aborted and ctx's error is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.abort()
		return nil
	case <-ctx.Done():
		d.abort()
		<-done
		d.log.Warn().Msg("notification drain cut short by shutdown deadline")
		return ctx.Err()
	}
}

// Notify enqueues n without blocking. When the shard is full the
// notification is dropped and ErrQueueFull returned.
func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.NotificationsDispatchedTotal.WithLabelValues(string(n.Kind), metrics.ResultDropped).Inc()
		return ErrDispatcherClosed
	}

	idx := d.shardIndex(n.UserID)
	select {
	case d.workers[idx] <- n:
		d.observeDepth(idx)
		return nil
	default:
		metrics.NotificationsDispatchedTotal.WithLabelValues(string(n.Kind), metrics.ResultDropped).Inc()
		d.log.Warn().Str("kind", string(n.Kind)).Str("user_id", n.UserID).Int("worker_id", idx).Msg("notification dropped, queue full")
		return ErrQueueFull
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) observeDepth(id int) {
	metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(d.workers[id])))
}

// runWorker drains ch until Shutdown closes it.
func (d *Dispatcher) runWorker(id int, ch <-chan domain.Notification) {
	defer d.wg.Done()
	for n := range ch {
		d.observeDepth(id)
		d.deliver(id, n)
	}
}

func (d *Dispatcher) deliver(id int, n domain.Notification) {
	ctx, cancel := context.WithTimeout(d.base, deliveryTimeout)
	defer cancel()

	start := time.Now()
	err := d.transport.Notify(ctx, n)
	metrics.NotificationDeliveryDuration.WithLabelValues(string(n.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationsDispatchedTotal.WithLabelValues(string(n.Kind), metrics.ResultError).Inc()
		d.log.Error().Err(err).
			Str("kind", string(n.Kind)).
			Str("user_id", n.UserID).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsDispatchedTotal.WithLabelValues(string(n.Kind), metrics.ResultSuccess).Inc()
}
