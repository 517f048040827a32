package wagateway

import (
  "context"
  "fmt"
  "sync"

  _ "github.com/lib/pq"
  "go.mau.fi/whatsmeow"
  waE2E "go.mau.fi/whatsmeow/proto/waE2E"
  "go.mau.fi/whatsmeow/store/sqlstore"
  watypes "go.mau.fi/whatsmeow/types"
  "go.mau.fi/whatsmeow/types/events"
  waLog "go.mau.fi/whatsmeow/util/log"
  "google.golang.org/protobuf/proto"

  "github.com/agent-sparta/sparta-backend/internal/logger"
)

// whatsmeowTransport drives a real WhatsApp Web session. Session keys
// live in the same Postgres database as the rest of the app, so a
// restart resumes the session without rescanning.
type whatsmeowTransport struct {
  log       *logger.Logger
  container *sqlstore.Container
  mu        sync.Mutex
  client    *whatsmeow.Client
}

func NewWhatsmeowTransport(log *logger.Logger, postgresDSN string) (Transport, error) {
  container, err := sqlstore.New(context.Background(), "postgres", postgresDSN, waLog.Noop)
  if err != nil {
    return nil, fmt.Errorf("failed to open whatsmeow session store: %w", err)
  }
  return &whatsmeowTransport{
    log:       log.With("component", "WhatsmeowTransport"),
    container: container,
  }, nil
}

func (wt *whatsmeowTransport) Initialize(ctx context.Context, ev Events) error {
  wt.mu.Lock()
  defer wt.mu.Unlock()
  if wt.client != nil {
    return fmt.Errorf("whatsapp client is already initialized")
  }

  device, err := wt.container.GetFirstDevice(ctx)
  if err != nil {
    return fmt.Errorf("failed to load whatsapp device: %w", err)
  }
  client := whatsmeow.NewClient(device, waLog.Noop)

  client.AddEventHandler(func(raw interface{}) {
    switch v := raw.(type) {
    case *events.PairSuccess:
      wt.log.Info("WhatsApp pairing succeeded", "jid", v.ID)
      if ev.Authenticated != nil {
        ev.Authenticated()
      }
    case *events.Connected:
      wt.log.Info("WhatsApp client connected :)")
      if ev.Ready != nil {
        ev.Ready()
      }
    case *events.Disconnected:
      wt.log.Warn("WhatsApp client disconnected")
      if ev.Disconnected != nil {
        ev.Disconnected("connection lost")
      }
    case *events.LoggedOut:
      wt.log.Warn("WhatsApp session logged out", "reason", v.Reason)
      if ev.AuthFailed != nil {
        ev.AuthFailed(v.Reason.String())
      }
    case *events.Message:
      if ev.Message == nil {
        return
      }
      ev.Message(InboundMessage{
        SenderPhone: v.Info.Sender.User,
        ChatID:      v.Info.Chat.String(),
        Text:        extractText(v),
        IsFromMe:    v.Info.IsFromMe,
      })
    }
  })

  if client.Store.ID == nil {
    // No stored session; a QR scan is required.
    qrChan, err := client.GetQRChannel(ctx)
    if err != nil {
      return fmt.Errorf("failed to open QR channel: %w", err)
    }
    go func() {
      for item := range qrChan {
        switch item.Event {
        case "code":
          if ev.QR != nil {
            ev.QR(item.Code)
          }
        case "timeout":
          if ev.AuthFailed != nil {
            ev.AuthFailed("QR scan timed out")
          }
        }
      }
    }()
  }

  if err := client.Connect(); err != nil {
    return fmt.Errorf("failed to connect whatsapp client: %w", err)
  }
  wt.client = client
  return nil
}

func extractText(msg *events.Message) string {
  if msg.Message == nil {
    return ""
  }
  if text := msg.Message.GetConversation(); text != "" {
    return text
  }
  return msg.Message.GetExtendedTextMessage().GetText()
}

func (wt *whatsmeowTransport) SendText(ctx context.Context, chatID string, text string) error {
  client, err := wt.activeClient()
  if err != nil {
    return err
  }
  jid, err := watypes.ParseJID(chatID)
  if err != nil {
    return fmt.Errorf("invalid chat id '%s': %w", chatID, err)
  }
  _, err = client.SendMessage(ctx, jid, &waE2E.Message{
    Conversation: proto.String(text),
  })
  return err
}

func (wt *whatsmeowTransport) SendTyping(ctx context.Context, chatID string) error {
  client, err := wt.activeClient()
  if err != nil {
    return err
  }
  jid, err := watypes.ParseJID(chatID)
  if err != nil {
    return fmt.Errorf("invalid chat id '%s': %w", chatID, err)
  }
  return client.SendChatPresence(ctx, jid, watypes.ChatPresenceComposing, watypes.ChatPresenceMediaText)
}

func (wt *whatsmeowTransport) Chats(ctx context.Context) ([]ChatSummary, error) {
  client, err := wt.activeClient()
  if err != nil {
    return nil, err
  }
  contacts, err := client.Store.Contacts.GetAllContacts(ctx)
  if err != nil {
    return nil, fmt.Errorf("failed to load whatsapp contacts: %w", err)
  }
  chats := make([]ChatSummary, 0, len(contacts))
  for jid, info := range contacts {
    name := info.FullName
    if name == "" {
      name = info.PushName
    }
    chats = append(chats, ChatSummary{ID: jid.String(), Name: name})
  }
  return chats, nil
}

func (wt *whatsmeowTransport) Destroy() error {
  wt.mu.Lock()
  defer wt.mu.Unlock()
  if wt.client != nil {
    wt.client.Disconnect()
    wt.client = nil
  }
  return nil
}

func (wt *whatsmeowTransport) activeClient() (*whatsmeow.Client, error) {
  wt.mu.Lock()
  defer wt.mu.Unlock()
  if wt.client == nil {
    return nil, fmt.Errorf("whatsapp client is not connected")
  }
  return wt.client, nil
}
