// Package session owns the backend connection: challenge-response
// authentication, the registration fallback for unknown identities, the
// connected receive loop, the periodic telemetry push, and reconnecting
// with backoff after transport loss.
package session

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/bike_client/internal/bike"
	"github.com/relabs-tech/bike_client/internal/rpc"
)

// ReasonUnregistered is the backend's rejection reason for a public key it
// has never seen. It is the only recoverable auth failure.
const ReasonUnregistered = "public key not on server"

// AuthError is an explicit rejection from the backend, as opposed to a
// transport failure. Everything except ReasonUnregistered shuts the
// manager down.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "session: auth failed: " + e.Reason
}

// registerPayload is the wire shape of the registration endpoint.
type registerPayload struct {
	MasterKey string `json:"master_key"`
	PublicKey string `json:"public_key"`
	Type      string `json:"type"`
}

// Manager runs the session state machine:
//
//	Disconnected -> Authenticating -> Connected -> Disconnected (loop)
//
// with Authenticating -> Registering -> Authenticating for unknown
// identities. The channel handle lives inside one runSession call; nothing
// outside the Connected state can reach it.
type Manager struct {
	bike      *bike.Bike
	engine    *rpc.Engine
	baseURL   string
	masterKey []byte
	client    *http.Client
	dialer    *websocket.Dialer
	backoff   time.Duration
	telemetry time.Duration
}

func NewManager(b *bike.Bike, e *rpc.Engine, baseURL string, masterKey []byte, backoff, telemetry time.Duration) *Manager {
	return &Manager{
		bike:      b,
		engine:    e,
		baseURL:   strings.TrimRight(baseURL, "/"),
		masterKey: masterKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		dialer:    websocket.DefaultDialer,
		backoff:   backoff,
		telemetry: telemetry,
	}
}

// Run drives the authenticate-connect cycle until ctx is cancelled or the
// backend rejects the session for an unrecoverable reason. Transport errors
// always come back here and retry after the backoff; an unknown identity
// gets exactly one registration attempt before re-authenticating.
func (m *Manager) Run(ctx context.Context) error {
	registered := false
	for {
		err := m.connectOnce(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		var authErr *AuthError
		if errors.As(err, &authErr) {
			if authErr.Reason == ReasonUnregistered && !registered {
				registered = true
				log.Printf("session: bike %d not registered, registering", m.bike.ID())
				if rerr := m.register(ctx); rerr != nil {
					return fmt.Errorf("session: registration failed: %w", rerr)
				}
				continue
			}
			log.Printf("session: bike %d auth failed (%s), giving up", m.bike.ID(), authErr.Reason)
			return err
		}

		log.Printf("session: connection lost (%v), retrying in %s", err, m.backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.backoff):
		}
	}
}

// connectOnce performs one full authenticate-connect cycle: ticket,
// challenge signature, session. Returns nil only on clean shutdown.
func (m *Manager) connectOnce(ctx context.Context) error {
	challenge, err := m.createTicket(ctx)
	if err != nil {
		return err
	}
	return m.runSession(ctx, m.bike.Sign(challenge))
}

// createTicket posts the public key as an authentication ticket request and
// returns the opaque challenge blob to sign.
func (m *Manager) createTicket(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/connect", bytes.NewReader(m.bike.PublicKey()))
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		if strings.Contains(resp.Status, "Identity not recognized") ||
			strings.Contains(string(body), "Identity not recognized") {
			return nil, &AuthError{Reason: ReasonUnregistered}
		}
		return nil, fmt.Errorf("session: ticket request returned %s", resp.Status)
	}
	return body, nil
}

// register submits the public key, device type and the out-of-band master
// key to the registration endpoint. The caller then retries authentication.
func (m *Manager) register(ctx context.Context) error {
	body, err := json.Marshal(registerPayload{
		MasterKey: hex.EncodeToString(m.masterKey),
		PublicKey: hex.EncodeToString(m.bike.PublicKey()),
		Type:      string(bike.TypeRoad),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("session: registration endpoint returned %s", resp.Status)
	}
	return nil
}

// runSession opens the authenticated channel, proves key ownership, then
// pumps inbound frames into the protocol engine until the channel drops.
func (m *Manager) runSession(ctx context.Context, signature []byte) error {
	ws, resp, err := m.dialer.DialContext(ctx, m.wsURL(), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}
	defer ws.Close()

	if err := ws.WriteMessage(websocket.BinaryMessage, m.bike.PublicKey()); err != nil {
		return err
	}
	if err := ws.WriteMessage(websocket.BinaryMessage, signature); err != nil {
		return err
	}

	_, confirmation, err := ws.ReadMessage()
	if err != nil {
		return err
	}
	if text := string(confirmation); strings.Contains(text, "fail") {
		reason := text
		if _, after, ok := strings.Cut(text, ":"); ok {
			reason = strings.TrimSpace(after)
		}
		return &AuthError{Reason: reason}
	}
	log.Printf("session: bike %d connected", m.bike.ID())

	c := &conn{ws: ws}

	// Announce the current lock state before anything else.
	if err := c.SendJSON(rpc.Notification{
		JSONRPC: rpc.Version,
		Method:  "status_update",
		Params:  map[string]bool{"locked": m.bike.Locked()},
	}); err != nil {
		return err
	}

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.pushTelemetry(sessCtx, c)
	}()

	// Unblock ReadMessage when the process shuts down.
	go func() {
		<-sessCtx.Done()
		ws.Close()
	}()

	for {
		msgType, payload, err := ws.ReadMessage()
		if err != nil {
			cancel()
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		m.engine.Dispatch(c, payload)
	}
}

// pushTelemetry sends the tracked position and battery level on a fixed
// interval while the session is up. A send failure ends the pusher; the
// receive loop notices the dead channel on its own.
func (m *Manager) pushTelemetry(ctx context.Context, c *conn) {
	ticker := time.NewTicker(m.telemetry)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		lon, lat, ok := m.bike.Position()
		if !ok {
			continue
		}
		err := c.SendJSON(rpc.Notification{
			JSONRPC: rpc.Version,
			Method:  "location_update",
			Params: map[string]interface{}{
				"lat":  lat,
				"long": lon,
				"bat":  m.bike.Battery(),
			},
		})
		if err != nil {
			log.Printf("session: telemetry send error: %v", err)
			return
		}
		log.Printf("session: bike %d sent location and battery %d", m.bike.ID(), m.bike.Battery())
	}
}

// wsURL converts the configured http(s) base into the ws(s) connect URL.
func (m *Manager) wsURL() string {
	u := m.baseURL + "/connect"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// conn wraps the websocket with a write lock: the protocol engine and the
// telemetry pusher both write to it.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) SendJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}
