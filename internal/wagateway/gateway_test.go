package wagateway

import (
  "context"
  "errors"
  "strings"
  "sync"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/services"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("failed to build test logger: %v", err)
  }
  return log
}

type sentText struct {
  chatID string
  text   string
}

// fakeTransport records every call. Initialize can be made to block on
// release, fire lifecycle events, or fail.
type fakeTransport struct {
  mu        sync.Mutex
  initCalls int
  initErr   error
  started   chan struct{}
  release   chan struct{}
  onInit    func(events Events)
  sent      []sentText
  typingTo  []string
  destroyed int
}

func (f *fakeTransport) Initialize(ctx context.Context, events Events) error {
  f.mu.Lock()
  f.initCalls++
  f.mu.Unlock()
  if f.started != nil {
    close(f.started)
    f.started = nil
  }
  if f.onInit != nil {
    f.onInit(events)
  }
  if f.release != nil {
    <-f.release
  }
  return f.initErr
}

func (f *fakeTransport) SendText(ctx context.Context, chatID string, text string) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.sent = append(f.sent, sentText{chatID: chatID, text: text})
  return nil
}

func (f *fakeTransport) SendTyping(ctx context.Context, chatID string) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.typingTo = append(f.typingTo, chatID)
  return nil
}

func (f *fakeTransport) Chats(ctx context.Context) ([]ChatSummary, error) {
  return []ChatSummary{{ID: "628111@s.whatsapp.net", Name: "Budi"}}, nil
}

func (f *fakeTransport) Destroy() error {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.destroyed++
  return nil
}

func (f *fakeTransport) initializeCount() int {
  f.mu.Lock()
  defer f.mu.Unlock()
  return f.initCalls
}

func (f *fakeTransport) sentMessages() []sentText {
  f.mu.Lock()
  defer f.mu.Unlock()
  return append([]sentText(nil), f.sent...)
}

type fakeAssistant struct {
  mu      sync.Mutex
  queries []string
}

func (f *fakeAssistant) ProcessMessage(ctx context.Context, message string, userID uuid.UUID) *services.AssistantReply {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.queries = append(f.queries, message)
  return &services.AssistantReply{
    Content:  "Baik, saya bantu.",
    Metadata: map[string]interface{}{"type": types.MetaTypeGeneral},
  }
}

func (f *fakeAssistant) callCount() int {
  f.mu.Lock()
  defer f.mu.Unlock()
  return len(f.queries)
}

type fakeNumbers struct {
  byPhone map[string]*types.AllowedNumber
}

func (f *fakeNumbers) RegisterNumber(ctx context.Context, phone string, displayName string) (*types.AllowedNumber, error) {
  return nil, errors.New("not implemented")
}

func (f *fakeNumbers) GetAllNumbers(ctx context.Context) ([]*types.AllowedNumber, error) {
  return nil, nil
}

func (f *fakeNumbers) ApproveNumber(ctx context.Context, phone string) error { return nil }

func (f *fakeNumbers) RejectNumber(ctx context.Context, phone string) error { return nil }

func (f *fakeNumbers) ResolveNumber(ctx context.Context, phone string) (*types.AllowedNumber, error) {
  return f.byPhone[phone], nil
}

type fakeUserRepo struct {
  admin *types.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  return users, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error) {
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
  return false, nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
  return false, nil
}

func (f *fakeUserRepo) GetEarliestByRole(ctx context.Context, tx *gorm.DB, role string) (*types.User, error) {
  if f.admin != nil && role == types.UserRoleAdmin {
    return f.admin, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetEarliest(ctx context.Context, tx *gorm.DB) (*types.User, error) {
  if f.admin != nil {
    return f.admin, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetMe(ctx context.Context, tx *gorm.DB) (*types.User, error) {
  return nil, gorm.ErrRecordNotFound
}

type gatewayFixture struct {
  transport *fakeTransport
  assistant *fakeAssistant
  numbers   *fakeNumbers
  users     *fakeUserRepo
  gw        *Gateway
}

func newGatewayFixture(t *testing.T, initTimeout time.Duration) *gatewayFixture {
  t.Helper()
  f := &gatewayFixture{
    transport: &fakeTransport{},
    assistant: &fakeAssistant{},
    numbers:   &fakeNumbers{byPhone: map[string]*types.AllowedNumber{}},
    users:     &fakeUserRepo{admin: &types.User{ID: uuid.New(), Role: types.UserRoleAdmin}},
  }
  f.gw = NewGateway(newTestLogger(t), f.transport, f.assistant, f.numbers, f.users, nil, nil, initTimeout)
  return f
}

func (f *gatewayFixture) approve(phone string) {
  f.numbers.byPhone[phone] = &types.AllowedNumber{
    Phone:  phone,
    Status: types.AllowedNumberStatusApproved,
  }
}

func TestConnect(t *testing.T) {
  ctx := context.Background()

  t.Run("concurrent calls collapse to one initialization", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.transport.started = make(chan struct{})
    f.transport.release = make(chan struct{})
    started := f.transport.started

    done := make(chan error, 1)
    go func() { done <- f.gw.Connect(ctx) }()
    <-started

    // The first attempt is still in flight; this call must be a no-op.
    if err := f.gw.Connect(ctx); err != nil {
      t.Fatalf("second connect errored: %v", err)
    }
    if got := f.transport.initializeCount(); got != 1 {
      t.Fatalf("initialize called %d times, want 1", got)
    }

    close(f.transport.release)
    if err := <-done; err != nil {
      t.Fatalf("first connect errored: %v", err)
    }
  })

  t.Run("connect while already progressing is a no-op", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.transport.onInit = func(events Events) {
      events.QR("pairing-code")
    }
    if err := f.gw.Connect(ctx); err != nil {
      t.Fatalf("connect errored: %v", err)
    }
    if err := f.gw.Connect(ctx); err != nil {
      t.Fatalf("repeat connect errored: %v", err)
    }
    if got := f.transport.initializeCount(); got != 1 {
      t.Fatalf("initialize called %d times, want 1", got)
    }
  })

  t.Run("initialization timeout resets the state for retry", func(t *testing.T) {
    f := newGatewayFixture(t, 50*time.Millisecond)
    f.transport.release = make(chan struct{})
    defer close(f.transport.release)

    err := f.gw.Connect(ctx)
    if err == nil {
      t.Fatalf("expected a timeout error")
    }
    status := f.gw.Status()
    if status.State != "uninitialized" {
      t.Fatalf("state = %q, want uninitialized", status.State)
    }
    if status.LastError == "" {
      t.Fatalf("expected lastError to be recorded")
    }
  })

  t.Run("initialization failure tears the transport down", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.transport.initErr = errors.New("store unreachable")

    if err := f.gw.Connect(ctx); err == nil {
      t.Fatalf("expected an error")
    }
    if f.transport.destroyed == 0 {
      t.Fatalf("expected transport destroy after failure")
    }
    if got := f.gw.Status().State; got != "uninitialized" {
      t.Fatalf("state = %q, want uninitialized", got)
    }
  })

  t.Run("QR event moves to awaiting scan with a rendered card", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.transport.onInit = func(events Events) {
      events.QR("pairing-code")
    }
    if err := f.gw.Connect(ctx); err != nil {
      t.Fatalf("connect errored: %v", err)
    }
    status := f.gw.Status()
    if status.State != "awaiting_scan" {
      t.Fatalf("state = %q, want awaiting_scan", status.State)
    }
    if !strings.HasPrefix(status.QRCode, "data:image/png;base64,") {
      t.Fatalf("expected a data URL, got %q", status.QRCode[:min(len(status.QRCode), 40)])
    }
  })

  t.Run("ready event clears the QR and marks connected", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.transport.onInit = func(events Events) {
      events.QR("pairing-code")
      events.Authenticated()
      events.Ready()
    }
    if err := f.gw.Connect(ctx); err != nil {
      t.Fatalf("connect errored: %v", err)
    }
    status := f.gw.Status()
    if status.State != "ready" || !status.Connected {
      t.Fatalf("status = %+v, want ready/connected", status)
    }
    if status.QRCode != "" {
      t.Fatalf("QR should be cleared once ready")
    }
  })

  t.Run("disconnect clears everything", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.transport.onInit = func(events Events) { events.Ready() }
    if err := f.gw.Connect(ctx); err != nil {
      t.Fatalf("connect errored: %v", err)
    }
    if err := f.gw.Disconnect(); err != nil {
      t.Fatalf("disconnect errored: %v", err)
    }
    status := f.gw.Status()
    if status.State != "uninitialized" || status.Connected {
      t.Fatalf("status = %+v, want uninitialized", status)
    }
    if f.transport.destroyed == 0 {
      t.Fatalf("expected transport destroy")
    }
  })
}

func TestSendMessage(t *testing.T) {
  ctx := context.Background()

  t.Run("refuses when not ready", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    if err := f.gw.SendMessage(ctx, "6281234@c.us", "halo"); err == nil {
      t.Fatalf("expected an error while uninitialized")
    }
  })

  t.Run("sends when ready", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.transport.onInit = func(events Events) { events.Ready() }
    if err := f.gw.Connect(ctx); err != nil {
      t.Fatalf("connect errored: %v", err)
    }
    if err := f.gw.SendMessage(ctx, "6281234@c.us", "halo"); err != nil {
      t.Fatalf("send errored: %v", err)
    }
    sent := f.transport.sentMessages()
    if len(sent) != 1 || sent[0].text != "halo" {
      t.Fatalf("unexpected sends: %v", sent)
    }
  })
}

func TestGetChats(t *testing.T) {
  ctx := context.Background()

  t.Run("empty while not ready", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    chats, err := f.gw.GetChats(ctx)
    if err != nil {
      t.Fatalf("unexpected error: %v", err)
    }
    if len(chats) != 0 {
      t.Fatalf("expected no chats, got %v", chats)
    }
  })

  t.Run("delegates when ready", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.transport.onInit = func(events Events) { events.Ready() }
    if err := f.gw.Connect(ctx); err != nil {
      t.Fatalf("connect errored: %v", err)
    }
    chats, err := f.gw.GetChats(ctx)
    if err != nil {
      t.Fatalf("unexpected error: %v", err)
    }
    if len(chats) != 1 || chats[0].Name != "Budi" {
      t.Fatalf("unexpected chats: %v", chats)
    }
  })
}

func TestHandleInbound(t *testing.T) {
  ctx := context.Background()

  t.Run("own messages are ignored", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "628111", ChatID: "c", Text: "halo", IsFromMe: true})
    if len(f.transport.sentMessages()) != 0 {
      t.Fatalf("expected no reply to own message")
    }
  })

  t.Run("unresolvable sender gets the unrecognized reply", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "", ChatID: "c", Text: "halo"})
    sent := f.transport.sentMessages()
    if len(sent) != 1 || sent[0].text != replyUnrecognized {
      t.Fatalf("unexpected replies: %v", sent)
    }
  })

  t.Run("unregistered sender is told to register", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "628111", ChatID: "c", Text: "halo"})
    sent := f.transport.sentMessages()
    if len(sent) != 1 || sent[0].text != replyNotRegistered {
      t.Fatalf("unexpected replies: %v", sent)
    }
    if f.assistant.callCount() != 0 {
      t.Fatalf("assistant must not run for unregistered senders")
    }
  })

  t.Run("pending sender never reaches the assistant", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.numbers.byPhone["628111"] = &types.AllowedNumber{
      Phone:  "628111",
      Status: types.AllowedNumberStatusPending,
    }
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "628111", ChatID: "c", Text: "/ai buatkan SPH"})
    sent := f.transport.sentMessages()
    if len(sent) != 1 || sent[0].text != replyNotApproved {
      t.Fatalf("unexpected replies: %v", sent)
    }
    if f.assistant.callCount() != 0 {
      t.Fatalf("assistant must not run for pending senders")
    }
  })

  t.Run("rejected sender is refused the same way", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.numbers.byPhone["628111"] = &types.AllowedNumber{
      Phone:  "628111",
      Status: types.AllowedNumberStatusRejected,
    }
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "628111", ChatID: "c", Text: "halo"})
    sent := f.transport.sentMessages()
    if len(sent) != 1 || sent[0].text != replyNotApproved {
      t.Fatalf("unexpected replies: %v", sent)
    }
  })

  t.Run("approved sender gets an assistant reply", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.approve("628111")
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "628111", ChatID: "c", Text: "/ai buatkan SPH untuk PT Maju Jaya"})
    sent := f.transport.sentMessages()
    if len(sent) != 1 || sent[0].text != "Baik, saya bantu." {
      t.Fatalf("unexpected replies: %v", sent)
    }
    if f.assistant.callCount() != 1 {
      t.Fatalf("assistant calls = %d, want 1", f.assistant.callCount())
    }
    if f.assistant.queries[0] != "buatkan SPH untuk PT Maju Jaya" {
      t.Fatalf("prefix not stripped: %q", f.assistant.queries[0])
    }
    if len(f.transport.typingTo) != 1 {
      t.Fatalf("expected a typing indicator")
    }
  })

  t.Run("no resolvable owner gets the generic apology", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.users.admin = nil
    f.approve("628111")
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "628111", ChatID: "c", Text: "halo"})
    sent := f.transport.sentMessages()
    if len(sent) != 1 || sent[0].text != replyProcessingError {
      t.Fatalf("unexpected replies: %v", sent)
    }
    if f.assistant.callCount() != 0 {
      t.Fatalf("assistant must not run without an owner")
    }
  })

  t.Run("bare prefix asks for an actual question", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.approve("628111")
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "628111", ChatID: "c", Text: "  /ai  "})
    sent := f.transport.sentMessages()
    if len(sent) != 1 || sent[0].text != replyEmptyQuery {
      t.Fatalf("unexpected replies: %v", sent)
    }
    if f.assistant.callCount() != 0 {
      t.Fatalf("assistant must not run for an empty query")
    }
  })

  t.Run("sender phone is normalized before lookup", func(t *testing.T) {
    f := newGatewayFixture(t, 5*time.Second)
    f.approve("628111222333")
    f.gw.HandleInbound(ctx, InboundMessage{SenderPhone: "+62 811-122-2333", ChatID: "c", Text: "halo"})
    if f.assistant.callCount() != 1 {
      t.Fatalf("normalized sender should be approved")
    }
  })
}

func TestStripCommandPrefix(t *testing.T) {
  cases := []struct {
    name string
    in   string
    want string
  }{
    {"slash prefix", "/ai buatkan SPH", "buatkan SPH"},
    {"colon prefix", "ai: buatkan SPH", "buatkan SPH"},
    {"uppercase prefix", "/AI buatkan SPH", "buatkan SPH"},
    {"mixed case colon", "Ai: halo", "halo"},
    {"no prefix passes through", "buatkan SPH", "buatkan SPH"},
    {"bare prefix is empty", "/ai", ""},
    {"whitespace only is empty", "   ", ""},
    {"prefix inside the text is kept", "tolong /ai jawab", "tolong /ai jawab"},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      if got := stripCommandPrefix(tc.in); got != tc.want {
        t.Fatalf("stripCommandPrefix(%q) = %q, want %q", tc.in, got, tc.want)
      }
    })
  }
}

func min(a, b int) int {
  if a < b {
    return a
  }
  return b
}
