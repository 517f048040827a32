package handlers

import (
  "context"
  "net/http"
  "sync"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/requestdata"
  "github.com/agent-sparta/sparta-backend/internal/services"
  "github.com/agent-sparta/sparta-backend/internal/sse"
  "github.com/agent-sparta/sparta-backend/internal/wagateway"
)

type SSEHandler struct {
  Log     *logger.Logger
  Hub     *sse.SSEHub
  Gateway *wagateway.Gateway
  mu      sync.RWMutex
  userMap map[uuid.UUID]*sse.SSEClient
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub, gateway *wagateway.Gateway) *SSEHandler {
  return &SSEHandler{
    Log:     log,
    Hub:     hub,
    Gateway: gateway,
    userMap: make(map[uuid.UUID]*sse.SSEClient),
  }
}

// WhatsAppEvents streams connection-status events. Attaching counts as
// a connect request: the stream subscribes to the status channel and
// kicks the guarded connect so the first viewer gets a QR without a
// separate call.
func (h *SSEHandler) WhatsAppEvents(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
    return
  }
  userID := rd.UserID

  h.mu.Lock()
  client, ok := h.userMap[userID]
  if ok {
    h.Hub.CloseClient(client)
    delete(h.userMap, userID)
  }
  client = h.Hub.NewSSEClient(userID)
  client.ID = uuid.New()
  client.Logger = h.Log.With("SSEClientID", client.ID)
  h.userMap[userID] = client
  h.mu.Unlock()

  h.Hub.AddChannel(client, wagateway.StatusChannel)
  h.Hub.AddChannel(client, services.DocumentsChannel)
  if h.Gateway != nil {
    // The stream opens with the current status so late subscribers do
    // not wait for the next transition.
    h.Hub.Send(client, sse.SSEMessage{
      Channel: wagateway.StatusChannel,
      Event:   "status",
      Data:    h.Gateway.Status(),
    })
    go func() {
      if err := h.Gateway.Connect(context.Background()); err != nil {
        h.Log.Warn("connect triggered by SSE subscriber failed", "error", err)
      }
    }()
  }

  h.Hub.ServeHTTP(c.Writer, c.Request, client)

  h.mu.Lock()
  delete(h.userMap, userID)
  h.mu.Unlock()
  h.Hub.CloseClient(client)
}
