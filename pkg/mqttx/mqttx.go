// Package mqttx wraps the paho client for soilnode: broker connection with
// backoff retry, a topic publisher, a subscription consumer, and the link
// monitor the network supervisor polls.
package mqttx

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
}

// NewConn builds the MQTT client and tries to connect with exponential
// backoff. On exhaustion the client is returned alongside the error: the
// network supervisor owns reconnection from then on, so startup proceeds
// offline. Auto-reconnect is disabled for the same reason.
func NewConn(ctx context.Context, cfg *Config) (mqtt.Client, error) {
	addr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(addr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	// Persistent session: subscriptions survive the supervisor-driven
	// reconnects without resubscribing here.
	opts.SetCleanSession(false)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	err := backoff.Retry(func() error {
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("mqttx: connect to %s failed: %v", addr, token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))

	if err != nil {
		return client, fmt.Errorf("mqtt connect after retries: %w", err)
	}
	log.Printf("mqttx: connected to %s", addr)

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Printf("mqttx: connection closed")
	}()
	return client, nil
}

// Link adapts the client to the supervisor's LinkMonitor.
type Link struct {
	client mqtt.Client
}

func NewLink(client mqtt.Client) *Link { return &Link{client: client} }

func (l *Link) Connected() bool {
	return l.client.IsConnectionOpen()
}

// Reconnect kicks off one connection attempt without waiting on the
// token; the supervisor's next poll observes the result.
func (l *Link) Reconnect() {
	token := l.client.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("mqttx: reconnect failed: %v", token.Error())
		}
	}()
}
