package transport

import (
	"testing"

	"github.com/pvillani/soilnode/internal/tasks"
)

// fakeMessage implements mqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
	dup     bool
}

func (m *fakeMessage) Duplicate() bool   { return m.dup }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestCommandIntakeForwardsActivation(t *testing.T) {
	cmds := tasks.NewCommandQueue()
	ci := NewCommandIntake(nil, "soilnode/cmd/pump/x", cmds)

	msg := &fakeMessage{topic: "soilnode/cmd/pump/x", payload: []byte(`{"ticket":"abc"}`)}
	if err := ci.handle(msg.Topic(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	cmd, ok := cmds.TryDequeue()
	if !ok {
		t.Fatal("no command forwarded")
	}
	if cmd.Ticket != "abc" || cmd.Source != "mqtt" {
		t.Errorf("command = %+v", cmd)
	}
}

func TestCommandIntakeEmptyPayloadActivates(t *testing.T) {
	cmds := tasks.NewCommandQueue()
	ci := NewCommandIntake(nil, "t", cmds)

	msg := &fakeMessage{topic: "t"}
	if err := ci.handle(msg.Topic(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	cmd, ok := cmds.TryDequeue()
	if !ok {
		t.Fatal("no command forwarded")
	}
	if cmd.Ticket == "" {
		t.Error("no ticket assigned")
	}
}

func TestCommandIntakeDropsRedelivery(t *testing.T) {
	cmds := tasks.NewCommandQueue()
	ci := NewCommandIntake(nil, "t", cmds)

	msg := &fakeMessage{topic: "t", payload: []byte(`{"ticket":"dup"}`)}
	_ = ci.handle(msg.Topic(), msg)
	if _, ok := cmds.TryDequeue(); !ok {
		t.Fatal("first delivery not forwarded")
	}

	// Same ticket again: a QoS1 redelivery must not run the pump twice.
	redelivery := &fakeMessage{topic: "t", payload: msg.payload, dup: true}
	_ = ci.handle(redelivery.Topic(), redelivery)
	if _, ok := cmds.TryDequeue(); ok {
		t.Error("redelivery forwarded")
	}

	// A different command still goes through.
	other := &fakeMessage{topic: "t", payload: []byte(`{"ticket":"fresh"}`)}
	_ = ci.handle(other.Topic(), other)
	if _, ok := cmds.TryDequeue(); !ok {
		t.Error("distinct command suppressed")
	}
}

func TestCommandIntakeDropsTicketlessRedelivery(t *testing.T) {
	cmds := tasks.NewCommandQueue()
	ci := NewCommandIntake(nil, "t", cmds)

	_ = ci.handle("t", &fakeMessage{topic: "t"})
	if _, ok := cmds.TryDequeue(); !ok {
		t.Fatal("first delivery not forwarded")
	}

	// Broker-flagged redelivery of the same ticketless payload.
	_ = ci.handle("t", &fakeMessage{topic: "t", dup: true})
	if _, ok := cmds.TryDequeue(); ok {
		t.Error("flagged redelivery forwarded")
	}
}

func TestCommandIntakeRepeatPressIsFreshCommand(t *testing.T) {
	cmds := tasks.NewCommandQueue()
	ci := NewCommandIntake(nil, "t", cmds)

	// Two identical presses in quick succession are two distinct
	// commands, not a redelivery.
	_ = ci.handle("t", &fakeMessage{topic: "t"})
	first, ok := cmds.TryDequeue()
	if !ok {
		t.Fatal("first press not forwarded")
	}

	_ = ci.handle("t", &fakeMessage{topic: "t"})
	second, ok := cmds.TryDequeue()
	if !ok {
		t.Fatal("second press suppressed")
	}
	if first.Ticket == second.Ticket {
		t.Error("repeat press shares a ticket")
	}
}

func TestCommandIntakeMalformedPayloadStillActivates(t *testing.T) {
	cmds := tasks.NewCommandQueue()
	ci := NewCommandIntake(nil, "t", cmds)

	msg := &fakeMessage{topic: "t", payload: []byte("not json")}
	if err := ci.handle(msg.Topic(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, ok := cmds.TryDequeue(); !ok {
		t.Error("malformed payload dropped the activation")
	}
}
