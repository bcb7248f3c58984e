package mqttx

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes payloads to one topic.
type IPublisher interface {
	Publish(payload string) error
	PublishQos(qos byte, retained bool, payload string) error
}

type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// Publish sends at QoS 0: state broadcasts are periodic, a lost one is
// replaced two seconds later.
func (p *Publisher) Publish(payload string) error {
	return p.PublishQos(0, false, payload)
}

func (p *Publisher) PublishQos(qos byte, retained bool, payload string) error {
	token := p.client.Publish(p.topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, token.Error())
	}
	return nil
}
