package mqttx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var closedCh = func() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return closedCh }
func (t *fakeToken) Error() error                   { return t.err }

// fakeClient fails the first failUntil subscribe attempts, then accepts and
// records the message callback.
type fakeClient struct {
	mu           sync.Mutex
	failUntil    int
	subscribes   int
	unsubscribes int
	callback     mqtt.MessageHandler
	subscribed   chan struct{}
}

func newFakeClient(failUntil int) *fakeClient {
	return &fakeClient{failUntil: failUntil, subscribed: make(chan struct{}, 1)}
}

func (c *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes++
	if c.subscribes <= c.failUntil {
		return &fakeToken{err: errors.New("not connected")}
	}
	c.callback = cb
	select {
	case c.subscribed <- struct{}{}:
	default:
	}
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribes++
	return &fakeToken{}
}

func (c *fakeClient) deliver(msg mqtt.Message) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	cb(nil, msg)
}

func (c *fakeClient) attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribes
}

func (c *fakeClient) IsConnected() bool                                  { return true }
func (c *fakeClient) IsConnectionOpen() bool                             { return true }
func (c *fakeClient) Connect() mqtt.Token                                { return &fakeToken{} }
func (c *fakeClient) Disconnect(uint)                                    {}
func (c *fakeClient) Publish(string, byte, bool, interface{}) mqtt.Token { return &fakeToken{} }
func (c *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{}
}
func (c *fakeClient) AddRoute(string, mqtt.MessageHandler)    {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// A node started while the broker is down must keep retrying the subscribe
// and end up receiving commands once the connection comes back.
func TestConsumeRetriesSubscribeUntilSuccess(t *testing.T) {
	client := newFakeClient(3)
	got := make(chan string, 1)
	c := NewConsumer(client, "soilnode/cmd/pump/x", 1, func(topic string, _ mqtt.Message) error {
		got <- topic
		return nil
	})
	c.retryWait = func(int) time.Duration { return time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Consume(ctx)
		close(done)
	}()

	select {
	case <-client.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe never succeeded")
	}
	if n := client.attempts(); n != 4 {
		t.Errorf("subscribe attempts = %d, want 4", n)
	}

	client.deliver(&fakeMessage{topic: "soilnode/cmd/pump/x"})
	select {
	case topic := <-got:
		if topic != "soilnode/cmd/pump/x" {
			t.Errorf("topic = %q", topic)
		}
	case <-time.After(time.Second):
		t.Fatal("message not dispatched after recovery")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return on cancel")
	}
	if client.unsubscribes != 1 {
		t.Errorf("unsubscribes = %d, want 1", client.unsubscribes)
	}
}

func TestConsumeStopsRetryingOnCancel(t *testing.T) {
	client := newFakeClient(1 << 30)
	c := NewConsumer(client, "t", 1, nil)
	c.retryWait = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Consume(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for client.attempts() == 0 {
		select {
		case <-deadline:
			t.Fatal("no subscribe attempt observed")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return on cancel")
	}
}

func TestSubscribeRetryWait(t *testing.T) {
	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for i, w := range want {
		if got := subscribeRetryWait(i + 1); got != w {
			t.Errorf("subscribeRetryWait(%d) = %s, want %s", i+1, got, w)
		}
	}
}
