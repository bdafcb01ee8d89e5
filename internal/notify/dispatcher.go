package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Dispatcher queues events in a bounded buffer and hands them to a Publisher from a
// single background worker, preserving the order events were raised in.
type Dispatcher struct {
	pub     Publisher
	log     *zap.Logger
	metrics *metrics.Collector
	events  chan Event
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(pub Publisher, queueSize int, m *metrics.Collector, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1000
	}
	d := &Dispatcher{
		pub:     pub,
		log:     log,
		metrics: m,
		events:  make(chan Event, queueSize),
		done:    make(chan struct{}),
	}
	go d.worker()
	return d
}

// Notify enqueues e. If the buffer is full or the dispatcher has shut down the event
// is dropped with a warning.
func (d *Dispatcher) Notify(_ context.Context, e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.count("dropped")
		d.log.Warn("event dispatcher stopped, dropping event",
			zap.String("type", string(e.Type)),
			zap.String("appointment_id", e.AppointmentID.String()),
		)
		return
	}

	select {
	case d.events <- e:
	default:
		d.count("dropped")
		d.log.Warn("event buffer full, dropping event",
			zap.String("type", string(e.Type)),
			zap.String("appointment_id", e.AppointmentID.String()),
		)
	}
}

// Shutdown stops accepting events, drains the queue until ctx is done and closes the publisher.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		d.log.Warn("event dispatcher shutdown timed out; pending events lost")
	}
	return d.pub.Close()
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for e := range d.events {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := d.pub.Publish(ctx, e); err != nil {
			d.count("failed")
			d.log.Error("failed to publish event",
				zap.Error(err),
				zap.String("type", string(e.Type)),
				zap.String("appointment_id", e.AppointmentID.String()),
			)
		} else {
			d.count("published")
		}
		cancel()
	}
}

func (d *Dispatcher) count(outcome string) {
	if d.metrics != nil {
		d.metrics.EventsPublished.WithLabelValues(outcome).Inc()
	}
}

// LogPublisher writes events to the log; used when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	payload, err := encode(e)
	if err != nil {
		return err
	}
	p.log.Info("appointment event",
		zap.String("type", string(e.Type)),
		zap.String("appointment_id", e.AppointmentID.String()),
		zap.String("doctor_id", e.DoctorID.String()),
		zap.Time("scheduled_start", e.Start),
		zap.ByteString("payload", payload),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
