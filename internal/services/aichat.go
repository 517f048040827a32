package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"

  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/repos"
  "github.com/agent-sparta/sparta-backend/internal/requestdata"
  "github.com/agent-sparta/sparta-backend/internal/socket"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

type AiChatService interface {
  //Session Level
  StartNewSession(ctx context.Context, title string) (*types.ChatSession, error)
  GetUserSessions(ctx context.Context) ([]*types.ChatSession, error)
  GetSessionMessages(ctx context.Context, sessionID uuid.UUID) ([]*types.ChatMessage, error)
  //Message Level
  SendUserMessage(ctx context.Context, sessionID uuid.UUID, content string) (*types.ChatMessage, *types.ChatMessage, error)
}

type aiChatService struct {
  log         *logger.Logger
  assistant   AssistantService
  sessionRepo repos.ChatSessionRepo
  messageRepo repos.ChatMessageRepo
  wsHub       *socket.Hub
}

func NewAiChatService(log *logger.Logger, assistant AssistantService, sessionRepo repos.ChatSessionRepo, messageRepo repos.ChatMessageRepo, wsHub *socket.Hub) AiChatService {
  return &aiChatService{
    log:         log.With("service", "AiChatService"),
    assistant:   assistant,
    sessionRepo: sessionRepo,
    messageRepo: messageRepo,
    wsHub:       wsHub,
  }
}

func (acs *aiChatService) StartNewSession(ctx context.Context, title string) (*types.ChatSession, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  if strings.TrimSpace(title) == "" {
    title = "New Chat"
  }
  session := &types.ChatSession{
    UserID: rd.UserID,
    Title:  title,
  }
  created, err := acs.sessionRepo.CreateSession(ctx, nil, session)
  if err != nil {
    return nil, fmt.Errorf("failed to create chat session: %w", err)
  }
  acs.log.Info("Started new chat session", "sessionID", created.ID, "userID", rd.UserID)
  return created, nil
}

func (acs *aiChatService) GetUserSessions(ctx context.Context) ([]*types.ChatSession, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  return acs.sessionRepo.GetUserSessions(ctx, nil, rd.UserID)
}

func (acs *aiChatService) GetSessionMessages(ctx context.Context, sessionID uuid.UUID) ([]*types.ChatMessage, error) {
  if _, err := acs.ownedSession(ctx, sessionID); err != nil {
    return nil, err
  }
  return acs.messageRepo.GetBySessionID(ctx, nil, sessionID)
}

// SendUserMessage stores the user's message, runs the assistant
// pipeline, stores the assistant's reply with its metadata, bumps the
// session, and returns both messages.
func (acs *aiChatService) SendUserMessage(ctx context.Context, sessionID uuid.UUID, content string) (*types.ChatMessage, *types.ChatMessage, error) {
  session, err := acs.ownedSession(ctx, sessionID)
  if err != nil {
    return nil, nil, err
  }
  if strings.TrimSpace(content) == "" {
    return nil, nil, fmt.Errorf("message content cannot be empty")
  }

  userMsg := &types.ChatMessage{
    SessionID: session.ID,
    Role:      types.ChatRoleUser,
    Content:   content,
  }
  if _, err := acs.messageRepo.CreateMessages(ctx, nil, []*types.ChatMessage{userMsg}); err != nil {
    return nil, nil, fmt.Errorf("failed to store user message: %w", err)
  }

  reply := acs.assistant.ProcessMessage(ctx, content, session.UserID)

  metadata, err := json.Marshal(reply.Metadata)
  if err != nil {
    acs.log.Warn("failed to marshal reply metadata", "error", err)
    metadata = []byte(`{"type":"general"}`)
  }
  assistantMsg := &types.ChatMessage{
    SessionID: session.ID,
    Role:      types.ChatRoleAssistant,
    Content:   reply.Content,
    Metadata:  metadata,
  }
  if _, err := acs.messageRepo.CreateMessages(ctx, nil, []*types.ChatMessage{assistantMsg}); err != nil {
    return nil, nil, fmt.Errorf("failed to store assistant message: %w", err)
  }

  if err := acs.sessionRepo.TouchSession(ctx, nil, session.ID); err != nil {
    acs.log.Warn("failed to touch chat session", "error", err, "sessionID", session.ID)
  }

  // Open websockets for this user see the reply without polling.
  if acs.wsHub != nil {
    acs.wsHub.BroadcastGlobal(ctx, socket.Message{
      Channel: fmt.Sprintf("user:%s", session.UserID),
      Data:    assistantMsg,
    })
  }
  return userMsg, assistantMsg, nil
}

// ownedSession loads the session and checks it belongs to the caller.
func (acs *aiChatService) ownedSession(ctx context.Context, sessionID uuid.UUID) (*types.ChatSession, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  session, err := acs.sessionRepo.GetSessionByID(ctx, nil, sessionID)
  if err != nil {
    return nil, fmt.Errorf("failed to load chat session: %w", err)
  }
  if session.UserID != rd.UserID {
    return nil, fmt.Errorf("chat session does not belong to this user")
  }
  return session, nil
}
