package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/services"
)

type AiHandler struct {
  aiChatService services.AiChatService
}

func NewAiHandler(aiChatService services.AiChatService) *AiHandler {
  return &AiHandler{aiChatService: aiChatService}
}

func (ah *AiHandler) StartSession(c *gin.Context) {
  var req struct {
    Title string `json:"title,omitempty"`
  }
  _ = c.ShouldBindJSON(&req)
  session, err := ah.aiChatService.StartNewSession(c.Request.Context(), req.Title)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, session)
}

func (ah *AiHandler) GetSessions(c *gin.Context) {
  sessions, err := ah.aiChatService.GetUserSessions(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (ah *AiHandler) GetMessages(c *gin.Context) {
  sessionID, err := uuid.Parse(c.Param("sessionID"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
    return
  }
  messages, err := ah.aiChatService.GetSessionMessages(c.Request.Context(), sessionID)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (ah *AiHandler) SendMessage(c *gin.Context) {
  sessionID, err := uuid.Parse(c.Param("sessionID"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
    return
  }
  var req struct {
    Content string `json:"content"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "message content is required"})
    return
  }
  userMsg, assistantMsg, err := ah.aiChatService.SendUserMessage(c.Request.Context(), sessionID, req.Content)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"userMessage": userMsg, "assistantMessage": assistantMsg})
}
