// Package rpc speaks the JSON-RPC-shaped device control protocol carried
// over the session channel: requests from the backend (lock, unlock),
// responses echoing the request id, and fire-and-forget notifications.
package rpc

import "encoding/json"

// Version is the protocol version stamped on every outbound message.
const Version = "2.0"

// Request asks the device to run a method. The requester picks a small
// integer id which the matching Response must echo.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      *int            `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ErrorObject carries a failure inside a Response.
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response answers a Request, echoing its id.
type Response struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      *int         `json:"id"`
	Result  interface{}  `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// Notification is a fire-and-forget message: no id, no reply expected.
type Notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}
