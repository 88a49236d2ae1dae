package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kelvi11/smart-warehouse/pkg/metrics"
)

func TestNew(t *testing.T) {
	e, err := New("orders", OpCreated, "o-1", map[string]string{"status": "CREATED"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "orders", e.Resource)
	assert.Equal(t, OpCreated, e.Op)
	assert.Equal(t, "o-1", e.EntityID)
	assert.JSONEq(t, `{"status":"CREATED"}`, string(e.Data))
	assert.False(t, e.Time.IsZero())

	deleted, err := New("orders", OpDeleted, "o-1", nil)
	require.NoError(t, err)
	assert.Nil(t, deleted.Data)

	_, err = New("orders", OpCreated, "o-1", make(chan int))
	assert.Error(t, err)
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(Config{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), Event{}))

	_, err = NewPublisher(Config{Driver: "carrier-pigeon"})
	assert.ErrorContains(t, err, "carrier-pigeon")
}

type fakeConn struct {
	subject string
	data    []byte
	err     error
	closed  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.subject, c.data = subject, data
	return c.err
}

func (c *fakeConn) Close() { c.closed = true }

func TestNATSPublisher(t *testing.T) {
	conn := &fakeConn{}
	p := newNATSPublisher(conn, "")

	e, err := New("trucks", OpUpdated, "CH-1", nil)
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), e))

	assert.Equal(t, "warehouse.trucks.updated", conn.subject)
	var got Event
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "CH-1", got.EntityID)

	require.NoError(t, p.Close())
	assert.True(t, conn.closed)
}

func TestNATSPublisherFailure(t *testing.T) {
	before := testutil.ToFloat64(metrics.EventPublishErrors.WithLabelValues("nats"))

	p := newNATSPublisher(&fakeConn{err: errors.New("no responders")}, "wh")
	err := p.Publish(context.Background(), Event{Resource: "orders", Op: OpDeleted})
	assert.ErrorContains(t, err, "no responders")

	after := testutil.ToFloat64(metrics.EventPublishErrors.WithLabelValues("nats"))
	assert.Equal(t, before+1, after)

	var nilConn NATSPublisher
	assert.ErrorIs(t, nilConn.Publish(context.Background(), Event{}), errConnNotInitialized)
}

func TestKafkaPublisher(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "wh.inventory-items" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "item-1" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})

	p := NewKafkaPublisherWithProducer(producer, "wh")
	e, err := New("inventory-items", OpCreated, "item-1", map[string]int{"quantity": 3})
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), e))
	assert.NoError(t, p.Close())
}

func TestKafkaPublisherFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	before := testutil.ToFloat64(metrics.EventPublishErrors.WithLabelValues("kafka"))
	p := NewKafkaPublisherWithProducer(producer, "")
	err := p.Publish(context.Background(), Event{Resource: "orders", EntityID: "o-1"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventPublishErrors.WithLabelValues("kafka")))
	assert.NoError(t, p.Close())
}

func TestSaramaConfig(t *testing.T) {
	conf, err := KafkaConfig{SASL: SASL{Enable: true, Username: "u", Password: "p", Algorithm: "sha512"}}.SaramaConfig()
	require.NoError(t, err)
	assert.True(t, conf.Net.SASL.Enable)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA512), conf.Net.SASL.Mechanism)
	assert.NotNil(t, conf.Net.SASL.SCRAMClientGeneratorFunc())
	assert.True(t, conf.Producer.Return.Successes)

	_, err = KafkaConfig{SASL: SASL{Enable: true, Algorithm: "md5"}}.SaramaConfig()
	assert.Error(t, err)

	_, err = KafkaConfig{Version: "not-a-version"}.SaramaConfig()
	assert.Error(t, err)
}

func TestScramClient(t *testing.T) {
	c := &scramClient{HashGeneratorFcn: SHA256}
	require.NoError(t, c.Begin("user", "pencil", ""))

	first, err := c.Step("")
	require.NoError(t, err)
	assert.Contains(t, first, "n=user")
	assert.False(t, c.Done())
}
