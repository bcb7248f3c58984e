package durable

import (
	"context"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/pvillani/soilnode/internal/model"
)

// InfluxConfig wires the event store to an InfluxDB bucket.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	Device string // tag identifying this node
}

// InfluxStore writes each log event as one point in the system_event
// measurement: fixed schema (timestamp, raw, percentage, event kind).
type InfluxStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	device   string
	timeout  time.Duration
}

func NewInfluxStore(cfg InfluxConfig) *InfluxStore {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		device:   sanitizeTag(cfg.Device),
		timeout:  2 * time.Second,
	}
}

func (s *InfluxStore) Append(evt model.LogEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	tags := map[string]string{
		"device":     s.device,
		"event_type": evt.Kind,
	}
	fields := map[string]interface{}{
		"raw":        evt.Raw,
		"percentage": evt.Percentage,
		"details":    evt.Details,
	}
	point := influxdb2.NewPoint("system_event", tags, fields, evt.Timestamp)
	return s.writeAPI.WritePoint(ctx, point)
}

func (s *InfluxStore) Close() {
	s.client.Close()
}

func sanitizeTag(v string) string {
	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == ':', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
