package wagateway

import "context"

// InboundMessage is one message received over the messaging transport,
// already reduced to what the gateway needs.
type InboundMessage struct {
  SenderPhone string // digits only; empty when the sender has no resolvable number
  ChatID      string // opaque reply address for this conversation
  Text        string
  IsFromMe    bool
}

// Events are the callbacks a transport fires as the external client
// moves through its lifecycle. Any callback may be nil.
type Events struct {
  QR           func(code string)
  Authenticated func()
  Ready        func()
  Disconnected func(reason string)
  AuthFailed   func(reason string)
  Message      func(msg InboundMessage)
}

// ChatSummary is one known conversation partner, for the admin chat
// listing.
type ChatSummary struct {
  ID   string `json:"id"`
  Name string `json:"name"`
}

// Transport abstracts the external messaging client so the gateway and
// its tests do not depend on a live WhatsApp connection.
type Transport interface {
  Initialize(ctx context.Context, events Events) error
  SendText(ctx context.Context, chatID string, text string) error
  SendTyping(ctx context.Context, chatID string) error
  Chats(ctx context.Context) ([]ChatSummary, error)
  Destroy() error
}
