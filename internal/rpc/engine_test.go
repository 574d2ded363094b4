package rpc

import (
	"errors"
	"testing"

	"github.com/relabs-tech/bike_client/internal/bike"
	"github.com/relabs-tech/bike_client/internal/gps"
)

type mockSender struct {
	sent []interface{}
	err  error
}

func (m *mockSender) SendJSON(v interface{}) error {
	m.sent = append(m.sent, v)
	return m.err
}

func testBike() *bike.Bike {
	seed := make([]byte, 32)
	copy(seed, "engine test seed")
	return bike.New(117, seed, false)
}

func TestHandleRequestLock(t *testing.T) {
	b := testBike()
	b.SetReading(gps.Reading{Longitude: 11.5167, Latitude: 48.1173})
	e := NewEngine(b)
	sender := &mockSender{}

	e.HandleRequest(sender, []byte(`{"jsonrpc":"2.0","method":"lock","id":7}`))

	if !b.Locked() {
		t.Fatal("bike not locked")
	}
	if lon, lat, ok := b.Anchor(); !ok || lon != 11.5167 || lat != 48.1173 {
		t.Errorf("anchor = (%f, %f, %t), want current position", lon, lat, ok)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	resp, ok := sender.sent[0].(Response)
	if !ok {
		t.Fatalf("sent %T, want Response", sender.sent[0])
	}
	if resp.JSONRPC != "2.0" {
		t.Errorf("jsonrpc = %q, want 2.0", resp.JSONRPC)
	}
	if resp.ID == nil || *resp.ID != 7 {
		t.Errorf("id = %v, want 7", resp.ID)
	}
	if result, _ := resp.Result.(bool); !result {
		t.Errorf("result = %v, want true", resp.Result)
	}
}

func TestHandleRequestUnlock(t *testing.T) {
	b := testBike()
	b.Lock()
	e := NewEngine(b)
	sender := &mockSender{}

	e.HandleRequest(sender, []byte(`{"jsonrpc":"2.0","method":"unlock","id":3}`))

	if b.Locked() {
		t.Fatal("bike still locked")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	resp := sender.sent[0].(Response)
	if result, _ := resp.Result.(bool); result {
		t.Errorf("result = %v, want false", resp.Result)
	}
}

func TestHandleRequestDropsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing method", `{"jsonrpc":"2.0","id":7}`},
		{"missing jsonrpc", `{"method":"lock","id":7}`},
		{"missing id", `{"jsonrpc":"2.0","method":"lock"}`},
		{"non-integer id", `{"jsonrpc":"2.0","method":"lock","id":"seven"}`},
		{"unknown method", `{"jsonrpc":"2.0","method":"self_destruct","id":7}`},
		{"not json", `lock please`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBike()
			e := NewEngine(b)
			sender := &mockSender{}

			e.HandleRequest(sender, []byte(tt.payload))

			if len(sender.sent) != 0 {
				t.Errorf("sent %d messages, want none", len(sender.sent))
			}
			if b.Locked() {
				t.Error("bike state changed by dropped request")
			}
		})
	}
}

func TestHandleRequestNilSender(t *testing.T) {
	b := testBike()
	e := NewEngine(b)

	// No active session: the state change applies, the response is dropped.
	e.HandleRequest(nil, []byte(`{"jsonrpc":"2.0","method":"lock","id":1}`))

	if !b.Locked() {
		t.Error("bike not locked")
	}
}

func TestHandleRequestSendError(t *testing.T) {
	b := testBike()
	e := NewEngine(b)
	sender := &mockSender{err: errors.New("channel closed")}

	e.HandleRequest(sender, []byte(`{"jsonrpc":"2.0","method":"lock","id":1}`))

	// A dead channel is logged and dropped, never fatal.
	if !b.Locked() {
		t.Error("bike not locked")
	}
}

func TestDispatchRouting(t *testing.T) {
	b := testBike()
	e := NewEngine(b)
	sender := &mockSender{}

	// Frame with a method field routes as a request.
	e.Dispatch(sender, []byte(`{"jsonrpc":"2.0","method":"lock","id":2}`))
	if !b.Locked() {
		t.Fatal("request frame not dispatched")
	}

	// Frame without a method field routes as a response: no-op, no send.
	before := len(sender.sent)
	e.Dispatch(sender, []byte(`{"jsonrpc":"2.0","id":2,"result":true}`))
	if len(sender.sent) != before {
		t.Error("response frame produced outbound traffic")
	}

	// Unparsable frames are ignored.
	e.Dispatch(sender, []byte(`not json`))
	if len(sender.sent) != before {
		t.Error("garbage frame produced outbound traffic")
	}
}
