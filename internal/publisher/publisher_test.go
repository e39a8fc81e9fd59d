package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-vitalsim/internal/models"
)

func sampleReading() models.Reading {
	return models.Reading{
		SessionID:     "3f9c1a52-8d7e-4c1b-9a63-2f0d6b7e1c44",
		Seq:           3,
		HeartRate:     81,
		HeartSource:   "simulated",
		BreathingRate: 17,
		HP:            92.5,
		Hearts:        5,
		Label:         "10:15:30",
		Timestamp:     time.Date(2024, 5, 1, 10, 15, 30, 0, time.UTC),
		Position:      12,
		Remaining:     48,
		Status:        "Monitoring",
	}
}

func TestCacheSink_PublishAndLatest(t *testing.T) {
	kv := newFakeKVStore()
	sink := NewCacheSink(kv, "", 0, zap.NewNop())
	r := sampleReading()

	require.NoError(t, sink.Publish(context.Background(), r))

	item, ok := kv.data["vitalsim:session:"+r.SessionID+":realtime"]
	require.True(t, ok)
	assert.Equal(t, DefaultRealtimeTTL, item.ttl)

	got, err := sink.Latest(context.Background(), r.SessionID)
	require.NoError(t, err)
	assert.Equal(t, r.HeartRate, got.HeartRate)
	assert.True(t, r.Timestamp.Equal(got.Timestamp))

	_, err = sink.Latest(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheSink_SetError(t *testing.T) {
	kv := newFakeKVStore()
	kv.err = errFake
	sink := NewCacheSink(kv, "", 0, zap.NewNop())

	err := sink.Publish(context.Background(), sampleReading())
	assert.ErrorIs(t, err, errFake)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisKVStore_WithMiniredis(t *testing.T) {
	mr, client := newMiniRedis(t)
	kv := NewRedisKVStore(client)
	sink := NewCacheSink(kv, "test:", 5*time.Second, zap.NewNop())
	r := sampleReading()

	require.NoError(t, sink.Publish(context.Background(), r))

	key := "test:" + r.SessionID + ":realtime"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 5*time.Second, mr.TTL(key))

	mr.FastForward(6 * time.Second)
	_, err := kv.Get(context.Background(), key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestStreamSink_WithMiniredis(t *testing.T) {
	_, client := newMiniRedis(t)
	sink := NewStreamSink(client, "", 0)

	for i := 0; i < 3; i++ {
		r := sampleReading()
		r.Seq = int64(i + 1)
		require.NoError(t, sink.Publish(context.Background(), r))
	}

	all, err := sink.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, all, 3)

	last, err := sink.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, int64(2), last[0].Seq)
	assert.Equal(t, int64(3), last[1].Seq)
}

type fakeMQTT struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
	qos    byte
	err    error
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.bodies = append(f.bodies, payload)
	f.qos = qos
	return nil
}

func TestMQTTSink(t *testing.T) {
	pub := &fakeMQTT{}
	sink := NewMQTTSink(pub, "", 0)
	r := sampleReading()

	require.NoError(t, sink.Publish(context.Background(), r))
	require.Len(t, pub.topics, 1)
	assert.Equal(t, "vitalsim/"+r.SessionID+"/data", pub.topics[0])
	assert.Equal(t, byte(0), pub.qos)

	var got models.Reading
	require.NoError(t, json.Unmarshal(pub.bodies[0], &got))
	assert.Equal(t, r.BreathingRate, got.BreathingRate)

	pub.err = errors.New("not connected")
	assert.Error(t, sink.Publish(context.Background(), r))
}

type fakeNATS struct {
	subject string
	data    []byte
}

func (f *fakeNATS) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return nil
}

func TestNATSSink(t *testing.T) {
	conn := &fakeNATS{}
	sink := NewNATSSink(conn, "")
	r := sampleReading()

	require.NoError(t, sink.Publish(context.Background(), r))
	assert.Equal(t, DefaultNATSSubject, conn.subject)

	var msg models.ParamMessage
	require.NoError(t, json.Unmarshal(conn.data, &msg))
	assert.Equal(t, models.ParamMessage{
		Subject: DefaultNATSSubject,
		Ts:      r.Timestamp.UnixMilli(),
		HR:      81,
		RR:      17,
		HP:      92.5,
	}, msg)
}

type fakeSampleWriter struct {
	samples []models.VitalSample
	err     error
}

func (f *fakeSampleWriter) Insert(_ context.Context, s models.VitalSample) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.samples = append(f.samples, s)
	return int64(len(f.samples)), nil
}

func TestSampleSink(t *testing.T) {
	w := &fakeSampleWriter{}
	sink := NewSampleSink(w)
	r := sampleReading()

	require.NoError(t, sink.Publish(context.Background(), r))
	require.Len(t, w.samples, 1)
	assert.Equal(t, r.SessionID, w.samples[0].SessionID)
	assert.Equal(t, r.Position, w.samples[0].Position)
	assert.Equal(t, r.Timestamp, w.samples[0].RecordedAt)

	w.err = errFake
	assert.ErrorIs(t, sink.Publish(context.Background(), r), errFake)
}
