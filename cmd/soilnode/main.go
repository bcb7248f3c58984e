package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pvillani/soilnode/internal/config"
	"github.com/pvillani/soilnode/internal/durable"
	"github.com/pvillani/soilnode/internal/hw"
	"github.com/pvillani/soilnode/internal/state"
	"github.com/pvillani/soilnode/internal/tasks"
	"github.com/pvillani/soilnode/internal/transport"
	"github.com/pvillani/soilnode/pkg/mqttx"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	cfg := struct {
		Device     string
		ConfigPath string
		HTTPPort   int
		DwellSec   int
		QueueSize  int

		Mqtt       mqttx.Config
		StateTopic string
		CmdTopic   string

		InfluxURL    string
		InfluxToken  string
		InfluxOrg    string
		InfluxBucket string

		RelayActiveHigh bool
		SimDecayPerMin  float64
	}{
		Device:     envStr("SOILNODE_DEVICE", "soilnode-1"),
		ConfigPath: envStr("SOILNODE_CONFIG", "soilnode.json"),
		HTTPPort:   envInt("HTTP_PORT", 8080),
		DwellSec:   envInt("PUMP_DWELL_SEC", 10),
		QueueSize:  envInt("EVENT_QUEUE_SIZE", 64),

		Mqtt: mqttx.Config{
			Host:     envStr("MQTT_HOST", ""),
			Port:     envInt("MQTT_PORT", 1883),
			User:     envStr("MQTT_USER", ""),
			Password: envStr("MQTT_PASSWORD", ""),
			ClientID: envStr("HOSTNAME", "soilnode"),
		},

		InfluxURL:    envStr("INFLUX_URL", ""),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "soilnode"),
		InfluxBucket: envStr("INFLUX_BUCKET", "events"),

		RelayActiveHigh: envInt("RELAY_ACTIVE_HIGH", 1) != 0,
		SimDecayPerMin:  0.001,
	}
	cfg.StateTopic = envStr("MQTT_STATE_TOPIC", "soilnode/state/"+cfg.Device)
	cfg.CmdTopic = envStr("MQTT_CMD_TOPIC", "soilnode/cmd/pump/"+cfg.Device)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Calibration + shared state ===
	cal := config.Load(cfg.ConfigPath)
	store := state.NewStore(cal)
	log.Printf("soilnode: calibration dry=%d wet=%d interval=%dms",
		cal.DryRef, cal.WetRef, cal.SamplingIntervalMs)

	// === Hardware (simulated probe + relay) ===
	probe := hw.NewSimProbe(cal.DryRef, cal.WetRef, cfg.SimDecayPerMin)
	relay := hw.NewMemRelay(cfg.RelayActiveHigh)
	relay.OnChange = probe.SetIrrigating

	// Power-on-safe default: de-energized before any task starts.
	if err := relay.Set(false); err != nil {
		log.Fatalf("soilnode: relay init: %v", err)
	}

	// === Queues ===
	events := tasks.NewEventQueue(cfg.QueueSize)
	cmds := tasks.NewCommandQueue()

	// === Durable event store ===
	var sink durable.Store = durable.Discard{}
	if cfg.InfluxURL != "" {
		is := durable.NewInfluxStore(durable.InfluxConfig{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
			Device: cfg.Device,
		})
		defer is.Close()
		sink = is
	} else {
		log.Printf("soilnode: no INFLUX_URL, event log is console-only")
	}

	// === Tasks ===
	logger := tasks.NewLogger(events, sink)
	sampler := tasks.NewSampler(store, probe, events)
	actuator := tasks.NewActuator(store, relay, events, cmds,
		time.Duration(cfg.DwellSec)*time.Second)

	go logger.Start(ctx)
	go sampler.Start(ctx)
	go actuator.Start(ctx)

	api := &transport.API{
		Store:      store,
		Commands:   cmds,
		Logger:     logger,
		ConfigPath: cfg.ConfigPath,
	}

	if cfg.Mqtt.Host != "" {
		client, err := mqttx.NewConn(ctx, &cfg.Mqtt)
		if err != nil {
			log.Printf("soilnode: broker unreachable, starting offline: %v", err)
		}
		api.MQTT = client

		supervisor := tasks.NewNetworkSupervisor(store, events, mqttx.NewLink(client))
		go supervisor.Start(ctx)

		broadcaster := transport.NewBroadcaster(store, mqttx.NewPublisher(client, cfg.StateTopic))
		go broadcaster.Start(ctx)

		intake := transport.NewCommandIntake(client, cfg.CmdTopic, cmds)
		go intake.Start(ctx)
	} else {
		log.Printf("soilnode: no MQTT_HOST, running without broker")
	}

	// === HTTP ===
	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           transport.NewMux(api),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("soilnode: HTTP listening on :%d", cfg.HTTPPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("soilnode: http server: %v", err)
		}
	}()

	// === Wait for signal ===
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Printf("soilnode: shutting down...")
	cancel()

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
