package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/dmehra2102/prod-golang-projects/optiflow/config"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func sampleAppointment() *appointment.Appointment {
	return &appointment.Appointment{
		ID:             uuid.New(),
		DoctorID:       uuid.New(),
		PatientID:      uuid.New(),
		ServiceID:      uuid.New(),
		ScheduledStart: time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC),
		DurationMins:   45,
		Status:         appointment.StatusPending,
	}
}

func TestDispatcher_DeliversInOrderAndDrainsOnShutdown(t *testing.T) {
	pub := &recordingPublisher{}
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	d := NewDispatcher(pub, 10, m, zap.NewNop())

	a := sampleAppointment()
	d.Notify(context.Background(), NewEvent(EventBooked, a, uuid.New()))
	d.Notify(context.Background(), NewEvent(EventConfirmed, a, uuid.New()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	require.Len(t, pub.events, 2)
	assert.Equal(t, EventBooked, pub.events[0].Type)
	assert.Equal(t, EventConfirmed, pub.events[1].Type)
	assert.True(t, pub.closed)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("published")))
}

func TestDispatcher_PublishFailureIsCounted(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	d := NewDispatcher(pub, 10, m, zap.NewNop())

	d.Notify(context.Background(), NewEvent(EventCancelled, sampleAppointment(), uuid.New()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("failed")))
}

func TestDispatcher_NotifyAfterShutdownIsDropped(t *testing.T) {
	pub := &recordingPublisher{}
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	d := NewDispatcher(pub, 10, m, zap.NewNop())
	a := sampleAppointment()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.Notify(context.Background(), NewEvent(EventBooked, a, uuid.New()))
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
	wg.Wait()

	dropped := testutil.ToFloat64(m.EventsPublished.WithLabelValues("dropped"))
	assert.NotPanics(t, func() { d.Notify(context.Background(), NewEvent(EventCancelled, a, uuid.New())) })
	assert.Equal(t, dropped+1, testutil.ToFloat64(m.EventsPublished.WithLabelValues("dropped")))
	assert.NoError(t, d.Shutdown(ctx), "second shutdown is a no-op")
}

func TestKafkaPublisher_KeysByDoctor(t *testing.T) {
	sc := mocks.NewTestConfig()
	sc.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, sc)

	a := sampleAppointment()
	e := NewEvent(EventBooked, a, uuid.New())

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != a.DoctorID.String() {
			return errors.New("message not keyed by doctor id")
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var decoded Event
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		if decoded.Type != EventBooked || decoded.AppointmentID != a.ID {
			return errors.New("unexpected payload")
		}
		return nil
	})

	pub := newKafkaPublisher(producer, "appointments.events", zap.NewNop())
	require.NoError(t, pub.Publish(context.Background(), e))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_BreakerOpensAfterFailures(t *testing.T) {
	sc := mocks.NewTestConfig()
	sc.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, sc)
	for i := 0; i < 5; i++ {
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	pub := newKafkaPublisher(producer, "appointments.events", zap.NewNop())
	e := NewEvent(EventBooked, sampleAppointment(), uuid.New())
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, pub.Publish(context.Background(), e), sarama.ErrOutOfBrokers)
	}

	// the breaker is open now; the producer is not called again
	err := pub.Publish(context.Background(), e)
	assert.ErrorContains(t, err, "kafka unavailable")
	require.NoError(t, pub.Close())
}

func TestSaramaConfig_SASL(t *testing.T) {
	sc, err := saramaConfig(config.KafkaConfig{
		ClientID:      "optiflow-api",
		SASLUser:      "user",
		SASLPassword:  "secret",
		SASLMechanism: "SCRAM-SHA-512",
		TLS:           true,
	})
	require.NoError(t, err)
	assert.True(t, sc.Net.SASL.Enable)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA512), sc.Net.SASL.Mechanism)
	require.NotNil(t, sc.Net.SASL.SCRAMClientGeneratorFunc)
	assert.NoError(t, sc.Net.SASL.SCRAMClientGeneratorFunc().Begin("user", "secret", ""))
	assert.True(t, sc.Net.TLS.Enable)

	_, err = saramaConfig(config.KafkaConfig{ClientID: "optiflow-api", SASLMechanism: "GSSAPI-ish"})
	assert.Error(t, err)
}

func TestEncode_ConcurrentCallersGetIndependentPayloads(t *testing.T) {
	var wg sync.WaitGroup
	payloads := make([][]byte, 16)
	events := make([]Event, len(payloads))
	for i := range events {
		events[i] = NewEvent(EventBooked, sampleAppointment(), uuid.New())
	}
	for i := range payloads {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := encode(events[i])
			assert.NoError(t, err)
			payloads[i] = b
		}(i)
	}
	wg.Wait()

	for i, b := range payloads {
		var got Event
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, events[i].AppointmentID, got.AppointmentID)
		assert.NotEqual(t, byte('\n'), b[len(b)-1])
	}
}

func TestLogPublisher_WritesPayload(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pub := NewLogPublisher(zap.New(core))
	e := NewEvent(EventCancelled, sampleAppointment(), uuid.New())

	require.NoError(t, pub.Publish(context.Background(), e))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "appointment event", entry.Message)
	assert.Equal(t, string(EventCancelled), entry.ContextMap()["type"])
	assert.Contains(t, entry.ContextMap()["payload"], e.AppointmentID.String())
}
