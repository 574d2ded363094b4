package rpc

import (
	"encoding/json"
	"log"

	"github.com/relabs-tech/bike_client/internal/bike"
)

// Sender delivers one JSON message over the active session channel. The
// session manager passes its live connection; a nil Sender means no session
// is open and outbound messages are dropped.
type Sender interface {
	SendJSON(v interface{}) error
}

// Engine routes inbound protocol messages to the closed set of device
// methods. Malformed and unroutable messages are dropped without a reply.
type Engine struct {
	bike     *bike.Bike
	handlers map[string]func(Sender, int)
}

// NewEngine builds the dispatch table. The method set is fixed at compile
// time; no reflection.
func NewEngine(b *bike.Bike) *Engine {
	e := &Engine{bike: b}
	e.handlers = map[string]func(Sender, int){
		"lock":   e.lock,
		"unlock": e.unlock,
	}
	return e
}

// Dispatch routes one raw text frame: frames carrying a method field are
// requests, the rest are responses. Frames that fail structural JSON parse
// are ignored.
func (e *Engine) Dispatch(sender Sender, payload []byte) {
	var probe struct {
		Method *string `json:"method"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return
	}
	if probe.Method != nil {
		e.HandleRequest(sender, payload)
	} else {
		e.HandleResponse(sender, payload)
	}
}

// HandleRequest validates and dispatches one inbound request. Requests
// missing jsonrpc, method or id, and requests for unknown methods, are
// unroutable: they are dropped silently and no error response is sent.
func (e *Engine) HandleRequest(sender Sender, payload []byte) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	if req.JSONRPC == "" || req.Method == "" || req.ID == nil {
		return
	}
	handler, ok := e.handlers[req.Method]
	if !ok {
		return
	}
	handler(sender, *req.ID)
}

// HandleResponse validates an inbound response. The client never issues
// requests that await replies, so a valid response is currently a no-op;
// an outstanding-request registry keyed by id would hang off this hook and
// must deliver to the original caller exactly once.
func (e *Engine) HandleResponse(sender Sender, payload []byte) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return
	}
	if resp.JSONRPC == "" || resp.ID == nil {
		return
	}
}

func (e *Engine) lock(sender Sender, id int) {
	e.reply(sender, id, e.bike.Lock())
}

func (e *Engine) unlock(sender Sender, id int) {
	e.reply(sender, id, e.bike.Unlock())
}

// reply sends the new locked state back with the request id. A missing or
// closed session drops the message; never fatal.
func (e *Engine) reply(sender Sender, id int, locked bool) {
	if sender == nil {
		log.Printf("rpc: no active session, dropping response for id %d", id)
		return
	}
	resp := Response{JSONRPC: Version, ID: &id, Result: locked}
	if err := sender.SendJSON(resp); err != nil {
		log.Printf("rpc: send error for id %d: %v", id, err)
	}
}
