package mqtt

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-vitalsim/common/config"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

// fakePaho records subscriptions; unimplemented methods panic via the nil embed
type fakePaho struct {
	mqtt.Client
	mu         sync.Mutex
	subscribed []string
	callbacks  map[string]mqtt.MessageHandler
	subErr     error
}

func (f *fakePaho) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return doneToken{err: f.subErr}
	}
	f.subscribed = append(f.subscribed, topic)
	f.callbacks[topic] = cb
	return doneToken{}
}

func (f *fakePaho) Unsubscribe(...string) mqtt.Token { return doneToken{} }

func newTestClient() (*Client, *fakePaho) {
	paho := &fakePaho{callbacks: make(map[string]mqtt.MessageHandler)}
	return &Client{
		client: paho,
		config: &config.MQTTConfig{Broker: "tcp://test:1883"},
		logger: zap.NewNop(),
		subs:   make(map[string]subscription),
	}, paho
}

func TestClient_ResubscribesAfterReconnect(t *testing.T) {
	c, paho := newTestClient()
	noop := func(string, []byte) error { return nil }

	require.NoError(t, c.Subscribe("vitalsim/+/playback", 1, noop))
	require.NoError(t, c.Subscribe("vitalsim/+/control", 1, noop))
	require.NoError(t, c.Subscribe("vitalsim/+/other", 0, noop))
	require.NoError(t, c.Unsubscribe("vitalsim/+/other"))

	paho.subscribed = nil
	c.resubscribe()

	sort.Strings(paho.subscribed)
	assert.Equal(t, []string{"vitalsim/+/control", "vitalsim/+/playback"}, paho.subscribed)
}

func TestClient_FailedSubscribeIsNotRemembered(t *testing.T) {
	c, paho := newTestClient()
	paho.subErr = errors.New("not authorized")

	err := c.Subscribe("vitalsim/+/control", 1, func(string, []byte) error { return nil })
	require.Error(t, err)

	paho.subErr = nil
	c.resubscribe()
	assert.Empty(t, paho.subscribed)
}

func TestClient_HandlerReceivesMessages(t *testing.T) {
	c, paho := newTestClient()

	var got []string
	require.NoError(t, c.Subscribe("vitalsim/+/control", 0, func(topic string, payload []byte) error {
		got = append(got, topic+" "+string(payload))
		return errors.New("logged only")
	}))

	paho.callbacks["vitalsim/+/control"](paho, fakeMessage{topic: "vitalsim/s1/control", payload: []byte(`{}`)})
	assert.Equal(t, []string{"vitalsim/s1/control {}"}, got)
}
