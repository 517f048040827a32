package sse

import (
  "encoding/json"
  "fmt"
  "net/http"
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/logger"
)

const (
  SSEEventWAInitializing = "initializing"
  SSEEventWAQR           = "qr"
  SSEEventWAReady        = "ready"
  SSEEventWADisconnected = "disconnected"
  SSEEventWAAuthFailure  = "auth_failure"
)

type SSEMessage struct {
  Channel string      `json:"channel"`
  Event   string      `json:"event"`
  Data    interface{} `json:"data,omitempty"`
}

type SSEClient struct {
  ID       uuid.UUID
  UserID   uuid.UUID
  Logger   *logger.Logger
  send     chan SSEMessage
  channels map[string]bool
  closed   bool
}

// SSEHub fans messages out to connected event-stream clients by
// channel subscription.
type SSEHub struct {
  log     *logger.Logger
  mu      sync.RWMutex
  clients map[*SSEClient]bool
}

func NewSSEHub(log *logger.Logger) *SSEHub {
  return &SSEHub{
    log:     log.With("component", "SSEHub"),
    clients: make(map[*SSEClient]bool),
  }
}

func (h *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
  client := &SSEClient{
    UserID:   userID,
    send:     make(chan SSEMessage, 32),
    channels: make(map[string]bool),
  }
  h.mu.Lock()
  h.clients[client] = true
  h.mu.Unlock()
  return client
}

func (h *SSEHub) CloseClient(client *SSEClient) {
  h.mu.Lock()
  defer h.mu.Unlock()
  if client.closed {
    return
  }
  client.closed = true
  delete(h.clients, client)
  close(client.send)
}

func (h *SSEHub) AddChannel(client *SSEClient, channel string) {
  h.mu.Lock()
  defer h.mu.Unlock()
  if !client.closed {
    client.channels[channel] = true
  }
}

func (h *SSEHub) RemoveChannel(client *SSEClient, channel string) {
  h.mu.Lock()
  defer h.mu.Unlock()
  delete(client.channels, channel)
}

// Broadcast delivers msg to every client subscribed to its channel.
// Clients that cannot keep up lose the message rather than block the
// sender.
func (h *SSEHub) Broadcast(msg SSEMessage) {
  h.mu.RLock()
  defer h.mu.RUnlock()
  for client := range h.clients {
    if client.closed || !client.channels[msg.Channel] {
      continue
    }
    select {
    case client.send <- msg:
    default:
      h.log.Warn("Dropping SSE message for slow client", "channel", msg.Channel, "userID", client.UserID)
    }
  }
}

// Send queues msg for a single client, same drop-over-block policy as
// Broadcast. Used for one-off deliveries like the opening status event.
func (h *SSEHub) Send(client *SSEClient, msg SSEMessage) {
  h.mu.RLock()
  defer h.mu.RUnlock()
  if client.closed {
    return
  }
  select {
  case client.send <- msg:
  default:
    h.log.Warn("Dropping SSE message for slow client", "channel", msg.Channel, "userID", client.UserID)
  }
}

// ServeHTTP streams hub messages to one client until the request
// context ends or the client is closed. A comment ping goes out every
// 30 seconds to keep intermediaries from timing the stream out.
func (h *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
  flusher, ok := w.(http.Flusher)
  if !ok {
    http.Error(w, "streaming unsupported", http.StatusInternalServerError)
    return
  }
  w.Header().Set("Content-Type", "text/event-stream")
  w.Header().Set("Cache-Control", "no-cache")
  w.Header().Set("Connection", "keep-alive")
  w.WriteHeader(http.StatusOK)
  flusher.Flush()

  ping := time.NewTicker(30 * time.Second)
  defer ping.Stop()

  for {
    select {
    case <-r.Context().Done():
      return
    case <-ping.C:
      fmt.Fprint(w, ": ping\n\n")
      flusher.Flush()
    case msg, open := <-client.send:
      if !open {
        return
      }
      payload, err := json.Marshal(msg)
      if err != nil {
        if client.Logger != nil {
          client.Logger.Warn("Failed to marshal SSE message", "error", err)
        }
        continue
      }
      fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, payload)
      flusher.Flush()
    }
  }
}
