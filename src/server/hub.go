package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"portfolio-observer/src/alerts"
	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *AlertServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			return

		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			// Send initial state on connect, trimmed to the client's scope
			if s.latestState != nil {
				initial := *s.latestState
				initial.Type = "INITIAL"
				client.send <- scopePayload(initial, client.scope)
			}
			s.stateMutex.Unlock()

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case message := <-s.broadcast:
			s.stateMutex.Lock()
			s.latestState = message

			for client := range s.clients {
				payload := scopePayload(*message, client.scope)
				select {
				case client.send <- payload:
				default:
					// Client too slow, disconnect to keep the hub moving
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a fresh payload for delivery to every client.
func (s *AlertServer) Broadcast(payload models.MLatestAlerts) {
	payload.Type = "UPDATE"
	s.broadcast <- &payload
}

// -----------------------------------------------------------------------------

// UpdateState replaces the cached state without broadcasting. Used when the
// payload only matters to clients connecting later.
func (s *AlertServer) UpdateState(payload models.MLatestAlerts) {
	s.stateMutex.Lock()
	s.latestState = &payload
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *AlertServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send:  make(chan interface{}, 256),
		scope: models.BadgeScopeAll,
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *AlertServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "subscribe":
		s.handleSubscribe(client, cmd)
	case "viewed":
		s.handleViewed(client, cmd)
	case "activate":
		s.handleActivate(cmd)
	}
}

// -----------------------------------------------------------------------------

// handleSubscribe pins a client to a badge scope and replays the current
// state filtered to it.
func (s *AlertServer) handleSubscribe(client *Client, cmd models.MClientCommand) {
	scope := cmd.Scope
	if scope != models.BadgeScopeCustom && scope != models.BadgeScopeAll {
		scope = models.BadgeScopeAll
	}

	// scope is read by the hub during fan-out, so the write takes the lock
	s.stateMutex.Lock()
	client.scope = scope
	initial := *s.latestState
	s.stateMutex.Unlock()

	initial.Type = "INITIAL"
	response := scopePayload(initial, scope)

	select {
	case client.send <- response:
	default:
	}
}

// -----------------------------------------------------------------------------

// handleViewed advances the viewed watermark for a scope and echoes the
// fresh counts back on the same connection.
func (s *AlertServer) handleViewed(client *Client, cmd models.MClientCommand) {
	scope := cmd.Scope
	if scope != models.BadgeScopeCustom && scope != models.BadgeScopeAll {
		scope = models.BadgeScopeAll
	}

	counts := s.Engine.MarkViewed(scope)

	s.stateMutex.RLock()
	payload := *s.latestState
	s.stateMutex.RUnlock()

	payload.Type = "UPDATE"
	payload.Badge = counts
	payload.BadgeState = s.Engine.Badge.State(s.Engine.Rules.Rules())

	select {
	case client.send <- scopePayload(payload, client.scope):
	default:
	}
}

// -----------------------------------------------------------------------------

// handleActivate fans a NAVIGATE deep-link out to every client. A click on a
// notification anywhere routes all open UIs to that instrument.
func (s *AlertServer) handleActivate(cmd models.MClientCommand) {
	if cmd.Code == "" {
		return
	}

	nav := &models.MLatestAlerts{
		Type:      "NAVIGATE",
		Code:      alerts.NormalizeCode(cmd.Code),
		Timestamp: time.Now().Unix(),
	}

	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	for client := range s.clients {
		select {
		case client.send <- nav:
		default:
		}
	}
}
