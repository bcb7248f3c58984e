package mqttx

import (
	"context"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one inbound message. Errors are logged, never
// propagated: a bad payload must not stall the subscription.
type Handler func(topic string, msg mqtt.Message) error

// Consumer subscribes to one topic filter and dispatches messages to its
// handler until the context is cancelled.
type Consumer struct {
	client  mqtt.Client
	topic   string
	qos     byte
	handler Handler

	// wait between failed subscribe attempts; swapped in tests
	retryWait func(attempt int) time.Duration
}

func NewConsumer(client mqtt.Client, topic string, qos byte, handler Handler) *Consumer {
	return &Consumer{
		client:    client,
		topic:     topic,
		qos:       qos,
		handler:   handler,
		retryWait: subscribeRetryWait,
	}
}

// subscribeRetryWait doubles from 1s to a 30s ceiling. The node may start
// with the broker down; the subscription has to land once the supervisor
// brings the link back.
func subscribeRetryWait(attempt int) time.Duration {
	exp := attempt - 1
	if exp < 0 {
		exp = 0
	}
	if exp > 5 {
		exp = 5
	}
	d := time.Second << uint(exp)
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// Consume blocks until ctx is done, then unsubscribes. Subscribe failures
// (broker down, link not up yet) are retried until one sticks; the intake
// must survive an offline start.
func (c *Consumer) Consume(ctx context.Context) {
	attempt := 0
	for {
		token := c.client.Subscribe(c.topic, c.qos, func(_ mqtt.Client, msg mqtt.Message) {
			if c.handler == nil {
				return
			}
			if err := c.handler(msg.Topic(), msg); err != nil {
				log.Printf("mqttx: handler error on %s: %v", msg.Topic(), err)
			}
		})
		if token.Wait() && token.Error() == nil {
			break
		}
		attempt++
		delay := c.retryWait(attempt)
		log.Printf("mqttx: subscribe %s failed (attempt %d, retry in %s): %v",
			c.topic, attempt, delay, token.Error())
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	log.Printf("mqttx: subscribed to %s", c.topic)

	<-ctx.Done()
	c.client.Unsubscribe(c.topic).Wait()
}
