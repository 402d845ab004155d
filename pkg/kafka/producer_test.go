package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	reg := prometheus.NewRegistry()
	p := NewProducerWithWriter(w, WithRegisterer(reg))

	require.NoError(t, p.Publish(context.Background(), "screens", []byte("kospi"), map[string]int{"n": 1}))
	require.NoError(t, p.PublishBatch(context.Background(), "screens", []Message{{Value: "raw"}, {Value: []byte("b")}}))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "screens", w.msgs[0].Topic)
	assert.Equal(t, []byte("kospi"), w.msgs[0].Key)
	assert.JSONEq(t, `{"n":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("screens", "gzip", "ok")))
}

func TestPublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, WithRegisterer(prometheus.NewRegistry()))

	err := p.Publish(context.Background(), "screens", nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screens")
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("screens", "gzip", "error")))
}

func TestPublishBatchEmpty(t *testing.T) {
	w := &fakeWriter{err: errors.New("unused")}
	p := NewProducerWithWriter(w)
	assert.NoError(t, p.PublishBatch(context.Background(), "t", nil))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}
