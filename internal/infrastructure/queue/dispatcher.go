package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/core/ports"
	"github.com/webgate/authportal/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the email, so events for one account are written in order.
// Record never blocks: when a worker queue is full the event is dropped.
type Dispatcher struct {
	workers []chan domain.AuthEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain what is already queued
// and stop once ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record enqueues an event on the worker responsible for its email.
func (d *Dispatcher) Record(event domain.AuthEvent) {
	idx := d.shardIndex(event.Email)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditEventsDroppedTotal.Inc()
		d.log.Warn().
			Str("kind", string(event.Kind)).
			Str("email", event.Email).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(ctx, id, event)
		}
	}
}

// drain writes what is left in ch with a fresh context, since the worker's
// context is already cancelled.
func (d *Dispatcher) drain(id int, ch <-chan domain.AuthEvent) {
	for {
		select {
		case event := <-ch:
			d.write(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, event domain.AuthEvent) {
	if err := d.repo.InsertEvent(ctx, &event); err != nil {
		metrics.AuditErrorsTotal.Inc()
		d.log.Error().Err(err).
			Str("kind", string(event.Kind)).
			Str("email", event.Email).
			Int("worker_id", id).
			Msg("audit event write failed")
	}
}
