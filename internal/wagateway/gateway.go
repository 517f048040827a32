package wagateway

import (
  "context"
  "fmt"
  "strings"
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/repos"
  "github.com/agent-sparta/sparta-backend/internal/services"
  "github.com/agent-sparta/sparta-backend/internal/socket"
  "github.com/agent-sparta/sparta-backend/internal/sse"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

// StatusChannel is the channel both live-status surfaces broadcast on.
const StatusChannel = "wa:status"

const (
  replyUnrecognized    = "Nomor WhatsApp tidak dikenali."
  replyNotRegistered   = "Nomor Anda belum terdaftar. Kirimkan nomor Anda ke admin untuk didaftarkan."
  replyNotApproved     = "Nomor Anda belum disetujui oleh admin."
  replyEmptyQuery      = "Tulis pesan Anda setelah \"/ai\" atau langsung kirim pertanyaan."
  replyProcessingError = "Maaf, terjadi kesalahan dalam memproses pesan Anda. Silakan coba lagi."
)

// commandPrefixes are recognized, optional markers in front of the
// actual query. Matching is case-insensitive.
var commandPrefixes = []string{"/ai", "ai:"}

// GatewayStatus is a point-in-time copy of the connection state.
type GatewayStatus struct {
  State     string `json:"state"`
  Connected bool   `json:"connected"`
  QRCode    string `json:"qrCode,omitempty"`
  LastError string `json:"lastError,omitempty"`
}

type Gateway struct {
  log       *logger.Logger
  transport Transport
  assistant services.AssistantService
  numbers   services.AllowedNumberService
  userRepo  repos.UserRepo
  sseHub    *sse.SSEHub
  wsHub     *socket.Hub

  initTimeout time.Duration

  mu           sync.Mutex
  state        ConnState
  connected    bool
  qrCode       string
  lastError    string
  initInFlight bool
}

func NewGateway(log *logger.Logger, transport Transport, assistant services.AssistantService, numbers services.AllowedNumberService, userRepo repos.UserRepo, sseHub *sse.SSEHub, wsHub *socket.Hub, initTimeout time.Duration) *Gateway {
  if initTimeout <= 0 {
    initTimeout = 60 * time.Second
  }
  return &Gateway{
    log:         log.With("component", "WhatsAppGateway"),
    transport:   transport,
    assistant:   assistant,
    numbers:     numbers,
    userRepo:    userRepo,
    sseHub:      sseHub,
    wsHub:       wsHub,
    initTimeout: initTimeout,
    state:       StateUninitialized,
  }
}

// Connect brings the external client up. Concurrent calls collapse to
// one in-flight attempt; a call while already connected is a no-op.
// Initialization is bounded by the configured timeout; exceeding it
// fails the attempt and resets the state so a retry is possible.
func (g *Gateway) Connect(ctx context.Context) error {
  g.mu.Lock()
  if g.initInFlight {
    g.mu.Unlock()
    return nil
  }
  switch g.state {
  case StateInitializing, StateAwaitingScan, StateAuthenticated, StateReady:
    g.mu.Unlock()
    return nil
  }
  g.initInFlight = true
  g.state = StateInitializing
  g.lastError = ""
  g.mu.Unlock()
  g.publish(sse.SSEEventWAInitializing, nil)

  initCtx, cancel := context.WithTimeout(ctx, g.initTimeout)
  defer cancel()

  errCh := make(chan error, 1)
  go func() { errCh <- g.transport.Initialize(initCtx, g.events()) }()

  var err error
  select {
  case err = <-errCh:
  case <-initCtx.Done():
    err = fmt.Errorf("whatsapp initialization timed out after %s", g.initTimeout)
  }

  if err != nil {
    g.mu.Lock()
    g.initInFlight = false
    g.state = StateUninitialized
    g.connected = false
    g.qrCode = ""
    g.lastError = err.Error()
    g.mu.Unlock()
    _ = g.transport.Destroy()
    g.publish(sse.SSEEventWAAuthFailure, map[string]interface{}{"error": err.Error()})
    g.log.Warn("WhatsApp connect attempt failed", "error", err)
    return err
  }

  g.mu.Lock()
  g.initInFlight = false
  g.mu.Unlock()
  g.log.Info("WhatsApp client initialization started")
  return nil
}

// Disconnect tears the client down and clears all status fields.
func (g *Gateway) Disconnect() error {
  err := g.transport.Destroy()
  g.mu.Lock()
  g.state = StateUninitialized
  g.connected = false
  g.qrCode = ""
  g.lastError = ""
  g.initInFlight = false
  g.mu.Unlock()
  g.publish(sse.SSEEventWADisconnected, map[string]interface{}{"reason": "disconnected by request"})
  g.log.Info("WhatsApp client disconnected")
  return err
}

func (g *Gateway) Status() GatewayStatus {
  g.mu.Lock()
  defer g.mu.Unlock()
  return GatewayStatus{
    State:     g.state.String(),
    Connected: g.connected,
    QRCode:    g.qrCode,
    LastError: g.lastError,
  }
}

// GetChats lists the known conversation partners. An unconnected
// client has no chats rather than an error.
func (g *Gateway) GetChats(ctx context.Context) ([]ChatSummary, error) {
  g.mu.Lock()
  ready := g.state == StateReady
  g.mu.Unlock()
  if !ready {
    return []ChatSummary{}, nil
  }
  return g.transport.Chats(ctx)
}

// SendMessage sends free text to a chat, for the admin send endpoint.
func (g *Gateway) SendMessage(ctx context.Context, chatID string, text string) error {
  g.mu.Lock()
  ready := g.state == StateReady
  g.mu.Unlock()
  if !ready {
    return fmt.Errorf("whatsapp client is not ready")
  }
  return g.transport.SendText(ctx, chatID, text)
}

func (g *Gateway) events() Events {
  return Events{
    QR:            g.onQR,
    Authenticated: g.onAuthenticated,
    Ready:         g.onReady,
    Disconnected:  g.onDisconnected,
    AuthFailed:    g.onAuthFailed,
    Message: func(msg InboundMessage) {
      go g.HandleInbound(context.Background(), msg)
    },
  }
}

func (g *Gateway) onQR(code string) {
  card, err := RenderQRCard(code)
  if err != nil {
    g.log.Warn("failed to render QR card", "error", err)
    card = code
  }
  g.mu.Lock()
  if !canTransition(g.state, StateAwaitingScan) {
    g.mu.Unlock()
    return
  }
  g.state = StateAwaitingScan
  g.connected = false
  g.qrCode = card
  g.mu.Unlock()
  g.publish(sse.SSEEventWAQR, map[string]interface{}{"qr": card})
  g.log.Info("WhatsApp pairing code published")
}

func (g *Gateway) onAuthenticated() {
  g.mu.Lock()
  if canTransition(g.state, StateAuthenticated) {
    g.state = StateAuthenticated
    g.qrCode = ""
  }
  g.mu.Unlock()
}

func (g *Gateway) onReady() {
  g.mu.Lock()
  if !canTransition(g.state, StateReady) {
    g.mu.Unlock()
    return
  }
  g.state = StateReady
  g.connected = true
  g.qrCode = ""
  g.lastError = ""
  g.mu.Unlock()
  g.publish(sse.SSEEventWAReady, nil)
  g.log.Info("WhatsApp client is ready :)")
}

func (g *Gateway) onDisconnected(reason string) {
  g.mu.Lock()
  if !canTransition(g.state, StateDisconnected) {
    g.mu.Unlock()
    return
  }
  g.state = StateDisconnected
  g.connected = false
  g.lastError = reason
  g.mu.Unlock()
  g.publish(sse.SSEEventWADisconnected, map[string]interface{}{"reason": reason})
  g.log.Warn("WhatsApp client disconnected", "reason", reason)
}

func (g *Gateway) onAuthFailed(reason string) {
  g.mu.Lock()
  g.state = StateAuthFailed
  g.connected = false
  g.qrCode = ""
  g.lastError = reason
  g.mu.Unlock()
  g.publish(sse.SSEEventWAAuthFailure, map[string]interface{}{"error": reason})
  g.log.Warn("WhatsApp authentication failed", "reason", reason)
}

func (g *Gateway) publish(event string, data interface{}) {
  if g.sseHub != nil {
    g.sseHub.Broadcast(sse.SSEMessage{Channel: StatusChannel, Event: event, Data: data})
  }
  if g.wsHub != nil {
    g.wsHub.BroadcastGlobal(context.Background(), socket.Message{
      Channel: StatusChannel,
      Data:    map[string]interface{}{"event": event, "data": data},
    })
  }
}

// HandleInbound runs the access gate and, for approved senders, the
// assistant pipeline. Replies go back over the transport; nothing is
// returned to the caller.
func (g *Gateway) HandleInbound(ctx context.Context, msg InboundMessage) {
  if msg.IsFromMe {
    return
  }

  phone := services.NormalizePhone(msg.SenderPhone)
  if phone == "" {
    g.reply(ctx, msg.ChatID, replyUnrecognized)
    return
  }

  number, err := g.numbers.ResolveNumber(ctx, phone)
  if err != nil {
    g.log.Warn("failed to resolve sender number", "error", err, "phone", phone)
    g.reply(ctx, msg.ChatID, replyUnrecognized)
    return
  }
  if number == nil {
    g.reply(ctx, msg.ChatID, replyNotRegistered)
    return
  }
  if number.Status != types.AllowedNumberStatusApproved {
    g.reply(ctx, msg.ChatID, replyNotApproved)
    return
  }

  query := stripCommandPrefix(msg.Text)
  if query == "" {
    g.reply(ctx, msg.ChatID, replyEmptyQuery)
    return
  }

  if err := g.transport.SendTyping(ctx, msg.ChatID); err != nil {
    g.log.Debug("failed to send typing indicator", "error", err)
  }

  ownerID := g.resolveOwner(ctx, number)
  if ownerID == uuid.Nil {
    g.reply(ctx, msg.ChatID, replyProcessingError)
    return
  }
  assistantReply := g.assistant.ProcessMessage(ctx, query, ownerID)
  g.reply(ctx, msg.ChatID, assistantReply.Content)
}

// resolveOwner maps an approved sender to the user the conversation
// acts as: the linked user when one exists, else the earliest-created
// admin, else the earliest-created user.
func (g *Gateway) resolveOwner(ctx context.Context, number *types.AllowedNumber) uuid.UUID {
  if number.UserID != nil && *number.UserID != uuid.Nil {
    return *number.UserID
  }
  if admin, err := g.userRepo.GetEarliestByRole(ctx, nil, types.UserRoleAdmin); err == nil {
    return admin.ID
  }
  if user, err := g.userRepo.GetEarliest(ctx, nil); err == nil {
    return user.ID
  }
  g.log.Warn("no user found to own whatsapp conversation")
  return uuid.Nil
}

func (g *Gateway) reply(ctx context.Context, chatID string, text string) {
  if err := g.transport.SendText(ctx, chatID, text); err != nil {
    g.log.Warn("failed to send whatsapp reply", "error", err, "chatID", chatID)
  }
}

func stripCommandPrefix(text string) string {
  trimmed := strings.TrimSpace(text)
  lower := strings.ToLower(trimmed)
  for _, prefix := range commandPrefixes {
    if strings.HasPrefix(lower, prefix) {
      return strings.TrimSpace(trimmed[len(prefix):])
    }
  }
  return trimmed
}
